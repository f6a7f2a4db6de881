package repository

import (
	"context"
	"time"

	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
)

// Lookups return errs.ErrBookNotFound, errs.ErrUserNotFound or errs.ErrLoanNotFound
// when the entity is absent. DeleteByID of an absent entity is not an error.

type BookRepository interface {
	FindByID(ctx context.Context, id int64) (model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (model.Book, error)
	FindAll(ctx context.Context) ([]model.Book, error)
	FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Book, error)
	// Save inserts a book with zero ID and assigns it, otherwise updates it. Stock and
	// ratings are only written on insert.
	Save(ctx context.Context, book *model.Book) error
	DeleteByID(ctx context.Context, id int64) error
	// AdjustStock applies delta atomically and returns the new stock.
	// It fails with errs.ErrStockConflict if stock would become negative.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
	AddRating(ctx context.Context, id int64, value int) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	FindAllSorted(ctx context.Context, sort query.Sort) ([]model.User, error)
	// Save persists the user together with its penalty set: penalties missing from
	// user.Penalties are removed, penalties with zero ID are inserted and get an ID.
	Save(ctx context.Context, user *model.User) error
	DeleteByID(ctx context.Context, id int64) error
}

type LoanRepository interface {
	FindByID(ctx context.Context, id int64) (model.Loan, error)
	FindAll(ctx context.Context) ([]model.Loan, error)
	FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Loan, error)
	FindByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	// FindDueBetween returns loans whose return date is in [from, to).
	FindDueBetween(ctx context.Context, from, to time.Time) ([]model.Loan, error)
	Save(ctx context.Context, loan *model.Loan) error
	DeleteByID(ctx context.Context, id int64) error
	// MarkPenaltyGenerated sets the flag and reports whether it was unset before.
	MarkPenaltyGenerated(ctx context.Context, id int64) (bool, error)
	// UnmarkPenaltyGenerated clears the flag again.
	UnmarkPenaltyGenerated(ctx context.Context, id int64) error
}
