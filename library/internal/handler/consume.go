package handler

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type returnLoan func(ctx context.Context, loanID int64) error

const defaultRetryDelay = time.Second

// Consumer applies loan returns published by kiosk devices.
type Consumer struct {
	returnLoanHandler returnLoan
	retryDelay        time.Duration
	log               *zap.Logger
}

func NewConsumer(returnLoan returnLoan, log *zap.Logger) *Consumer {
	return &Consumer{
		returnLoanHandler: returnLoan,
		retryDelay:        defaultRetryDelay,
		log:               log.Named("consumer"),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks a message only once it is applied or known to be
// malformed. A failed return ends the claim unmarked, so the partition is
// redelivered from the last committed offset when the group rejoins.
func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if err := consumer.handle(session.Context(), message); err != nil {
				select {
				case <-session.Context().Done():
				case <-time.After(consumer.retryDelay):
				}
				return err
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle returns an error only when the return could not be applied. A
// malformed message is dropped and a missing loan is already a no-op in
// ReturnLoan.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var msg model.ReturnLoanMsg
	if err := jsoniter.Unmarshal(message.Value, &msg); err != nil || msg.LoanID <= 0 {
		consumer.log.Error("bad return message", zap.ByteString("value", message.Value), zap.Error(err))
		return nil
	}
	if err := consumer.returnLoanHandler(ctx, msg.LoanID); err != nil {
		consumer.log.Error("consumer.returnLoanHandler",
			zap.Int64("loan_id", msg.LoanID),
			zap.Int64("offset", message.Offset),
			zap.Error(err))
		return errors.Wrapf(err, "return loan %d", msg.LoanID)
	}
	consumer.log.Debug("Message claimed:",
		zap.Int64("loan_id", msg.LoanID),
		zap.Time("timestamp", message.Timestamp),
		zap.String("topic", message.Topic))
	return nil
}
