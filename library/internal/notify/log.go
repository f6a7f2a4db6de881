package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("reminder")}
}

func (n *LogNotifier) Notify(_ context.Context, loan model.Loan) error {
	n.log.Info("loan due soon",
		zap.Int64("loan_id", loan.ID),
		zap.Int64("user_id", loan.UserID),
		zap.String("book_title", loan.BookTitle),
		zap.Time("return_date", loan.ReturnDate))
	return nil
}
