package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

// Notifier delivers a due-date reminder for one loan.
type Notifier interface {
	Notify(ctx context.Context, loan model.Loan) error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newReminder(loan model.Loan, now time.Time) model.LoanReminder {
	return model.LoanReminder{
		ID:         uuid.NewString(),
		LoanID:     loan.ID,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		BookTitle:  loan.BookTitle,
		ReturnDate: loan.ReturnDate,
		SentAt:     now,
	}
}
