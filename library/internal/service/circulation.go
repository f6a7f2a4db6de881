package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/metrics"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
)

// Circulation approves, returns and penalizes loans. Locks are taken user
// first, then book.
type Circulation struct {
	books     repository.BookRepository
	users     repository.UserRepository
	loans     repository.LoanRepository
	inventory *Inventory
	ledger    *Ledger
	locks     *Locker
	cfg       config.Circulation
	now       Clock
	log       *zap.Logger
}

// ApproveLoan creates a loan when the book has a copy left and the user has
// fewer active penalties than the configured maximum. A zero return date
// defaults to now plus the loan period.
func (c *Circulation) ApproveLoan(ctx context.Context, req model.LoanRequest) (model.Loan, error) {
	now := c.now()
	returnDate := req.ReturnDate
	if returnDate.IsZero() {
		returnDate = now.Add(c.cfg.LoanPeriod)
	} else if !returnDate.After(now) {
		return model.Loan{}, errs.ErrReturnDate
	}

	unlockUser := c.locks.Lock(userKey(req.UserID))
	defer unlockUser()
	unlockBook := c.locks.Lock(bookKey(req.BookID))
	defer unlockBook()

	book, err := c.books.FindByID(ctx, req.BookID)
	if err != nil {
		return model.Loan{}, err
	}
	user, err := c.users.FindByID(ctx, req.UserID)
	if err != nil {
		return model.Loan{}, err
	}
	if book.Stock <= 0 {
		metrics.LoansRejected.WithLabelValues(metrics.ReasonOutOfStock).Inc()
		return model.Loan{}, errs.ErrBookOutOfStock
	}
	if active := user.ActivePenalties(now); active >= c.cfg.MaxPenalties {
		metrics.LoansRejected.WithLabelValues(metrics.ReasonPenalties).Inc()
		c.log.Info("loan rejected",
			zap.Int64("user_id", user.ID),
			zap.Int("active_penalties", active))
		return model.Loan{}, errs.ErrUserHasPenalties
	}

	if _, err := c.inventory.adjust(ctx, book.ID, -1); err != nil {
		return model.Loan{}, err
	}
	loan := model.Loan{
		UserID:     user.ID,
		BookID:     book.ID,
		ReturnDate: returnDate,
	}
	if err := c.loans.Save(ctx, &loan); err != nil {
		if _, rbErr := c.inventory.adjust(ctx, book.ID, 1); rbErr != nil {
			c.log.Error("restore stock", zap.Int64("book_id", book.ID), zap.Error(rbErr))
		}
		return model.Loan{}, errors.Wrap(err, "save loan")
	}
	metrics.LoansApproved.Inc()
	c.log.Info("loan approved",
		zap.Int64("loan_id", loan.ID),
		zap.Int64("user_id", loan.UserID),
		zap.Int64("book_id", loan.BookID),
		zap.Time("return_date", loan.ReturnDate))
	return loan, nil
}

// ReturnLoan restores the book stock and deletes the loan. An unknown loan
// is ignored so that redelivered return messages are harmless.
func (c *Circulation) ReturnLoan(ctx context.Context, loanID int64) error {
	loan, err := c.loans.FindByID(ctx, loanID)
	if errors.Is(err, errs.ErrLoanNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(bookKey(loan.BookID))
	defer unlock()

	// a concurrent return may have won the lock
	if _, err = c.loans.FindByID(ctx, loanID); errors.Is(err, errs.ErrLoanNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if _, err := c.inventory.adjust(ctx, loan.BookID, 1); err != nil {
		return err
	}
	if err := c.loans.DeleteByID(ctx, loanID); err != nil {
		if _, rbErr := c.inventory.adjust(ctx, loan.BookID, -1); rbErr != nil {
			c.log.Error("revert stock", zap.Int64("book_id", loan.BookID), zap.Error(rbErr))
		}
		return err
	}
	metrics.LoansReturned.Inc()
	c.log.Info("loan returned", zap.Int64("loan_id", loanID), zap.Int64("book_id", loan.BookID))
	return nil
}

// RemoveLoan deletes the loan without touching stock.
func (c *Circulation) RemoveLoan(ctx context.Context, loanID int64) error {
	loan, err := c.loans.FindByID(ctx, loanID)
	switch {
	case err == nil:
		unlock := c.locks.Lock(bookKey(loan.BookID))
		defer unlock()
	case !errors.Is(err, errs.ErrLoanNotFound):
		return err
	}
	return c.loans.DeleteByID(ctx, loanID)
}

// FlagOverduePenalty adds one penalty per overdue loan of the user that has
// not produced one yet and returns how many were added.
func (c *Circulation) FlagOverduePenalty(ctx context.Context, userID int64) (int, error) {
	unlock := c.locks.Lock(userKey(userID))
	defer unlock()

	if _, err := c.users.FindByID(ctx, userID); err != nil {
		return 0, err
	}
	loans, err := c.loans.FindByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := c.now()
	added := 0
	for _, loan := range loans {
		if loan.PenaltyGenerated || !loan.Overdue(now) {
			continue
		}
		marked, err := c.loans.MarkPenaltyGenerated(ctx, loan.ID)
		if errors.Is(err, errs.ErrLoanNotFound) {
			continue
		}
		if err != nil {
			return added, err
		}
		if !marked {
			continue
		}
		if _, err := c.ledger.addPenalty(ctx, userID, c.cfg.OverduePenaltyMonths, metrics.PenaltyOverdue); err != nil {
			if uErr := c.loans.UnmarkPenaltyGenerated(ctx, loan.ID); uErr != nil {
				c.log.Error("unmark penalty", zap.Int64("loan_id", loan.ID), zap.Error(uErr))
			}
			return added, err
		}
		added++
	}
	return added, nil
}

func (c *Circulation) FindLoan(ctx context.Context, id int64) (model.Loan, error) {
	return c.loans.FindByID(ctx, id)
}

// ListLoans searches loans by the user id carried in the search query.
func (c *Circulation) ListLoans(ctx context.Context, spec query.Spec) (model.List[model.Loan], error) {
	if err := spec.Validate(); err != nil {
		return model.List[model.Loan]{}, err
	}
	loans, err := c.loans.FindAllSorted(ctx, query.ByIDAsc)
	if err != nil {
		return model.List[model.Loan]{}, err
	}
	return query.Search(loans, query.Loans, spec)
}
