package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

const (
	ReasonOutOfStock = "out_of_stock"
	ReasonPenalties  = "penalties"

	PenaltyManual  = "manual"
	PenaltyOverdue = "overdue"
)

var (
	LoansApproved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_approved_total",
		Help:      "Loans created.",
	})
	LoansRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_rejected_total",
		Help:      "Loan approvals rejected by a business rule.",
	}, []string{"reason"})
	LoansReturned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_returned_total",
		Help:      "Loans returned with stock restored.",
	})
	PenaltiesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "penalties_added_total",
		Help:      "Penalties added by kind.",
	}, []string{"kind"})
	PenaltiesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "penalties_removed_total",
		Help:      "Penalties removed individually or by the expiry sweep.",
	})
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_sent_total",
		Help:      "Loans handed to the notification sink.",
	})
	ReminderScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reminder_scan_duration_seconds",
		Help:      "Duration of one reminder scan including notification.",
		Buckets:   prometheus.DefBuckets,
	})
)
