package handler

import (
	"context"

	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	FindByID(ctx context.Context, id int64) (model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (model.Book, error)
	AddBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	RemoveBook(ctx context.Context, id int64) error
	AddCopies(ctx context.Context, id int64, n int) (model.Book, error)
	AverageRating(ctx context.Context, id int64) (float64, error)
	Rate(ctx context.Context, id int64, value int) error
	ListBooks(ctx context.Context, spec query.Spec) (model.List[model.Book], error)
}

type UserService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Delete(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, spec query.Spec) (model.List[model.User], error)
}

type PenaltyService interface {
	Penalties(ctx context.Context, userID int64) ([]model.Penalty, error)
	AddPenalty(ctx context.Context, userID int64, months int) (model.Penalty, error)
	RemoveExpired(ctx context.Context, userID int64) (int, error)
	RemoveByID(ctx context.Context, userID, penaltyID int64) error
}

type LoanService interface {
	ApproveLoan(ctx context.Context, req model.LoanRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanID int64) error
	RemoveLoan(ctx context.Context, loanID int64) error
	FlagOverduePenalty(ctx context.Context, userID int64) (int, error)
	FindLoan(ctx context.Context, id int64) (model.Loan, error)
	ListLoans(ctx context.Context, spec query.Spec) (model.List[model.Loan], error)
}

var (
	_ BookService    = (*service.Inventory)(nil)
	_ UserService    = (*service.Users)(nil)
	_ PenaltyService = (*service.Ledger)(nil)
	_ LoanService    = (*service.Circulation)(nil)
)
