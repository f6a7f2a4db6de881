// Package memory keeps books, users and loans in process memory. It backs the
// "memory" storage driver and the service tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	books map[int64]model.Book
	users map[int64]model.User
	loans map[int64]model.Loan

	bookSeq    int64
	userSeq    int64
	penaltySeq int64
	loanSeq    int64
	authorSeq  int64
	genreSeq   int64
}

func NewStore() *Store {
	return &Store{
		books: make(map[int64]model.Book),
		users: make(map[int64]model.User),
		loans: make(map[int64]model.Loan),
	}
}

func (s *Store) Books() *BookRepository { return &BookRepository{s: s} }
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Loans() *LoanRepository { return &LoanRepository{s: s} }

var (
	_ repository.BookRepository = (*BookRepository)(nil)
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.LoanRepository = (*LoanRepository)(nil)
)

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}

type BookRepository struct {
	s *Store
}

func (r *BookRepository) FindByID(_ context.Context, id int64) (model.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[id]
	if !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	return b.Clone(), nil
}

func (r *BookRepository) FindByISBN(_ context.Context, isbn string) (model.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.books {
		if b.ISBN == isbn {
			return b.Clone(), nil
		}
	}
	return model.Book{}, errs.ErrBookNotFound
}

func (r *BookRepository) FindAll(_ context.Context) ([]model.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	books := sortedValues(r.s.books, func(b model.Book) int64 { return b.ID })
	for i := range books {
		books[i] = books[i].Clone()
	}
	return books, nil
}

func (r *BookRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Book, error) {
	books, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := query.SortStable(books, query.Books, sort); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookRepository) Save(_ context.Context, book *model.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.books {
		if b.ISBN == book.ISBN && id != book.ID {
			return errs.ErrIsbnExists
		}
	}
	for i := range book.Authors {
		if book.Authors[i].ID == 0 {
			r.s.authorSeq++
			book.Authors[i].ID = r.s.authorSeq
		}
	}
	for i := range book.Genres {
		if book.Genres[i].ID == 0 {
			r.s.genreSeq++
			book.Genres[i].ID = r.s.genreSeq
		}
	}

	if book.ID == 0 {
		r.s.bookSeq++
		book.ID = r.s.bookSeq
		r.s.books[book.ID] = book.Clone()
		return nil
	}
	stored, ok := r.s.books[book.ID]
	if !ok {
		return errs.ErrBookNotFound
	}
	updated := book.Clone()
	updated.Stock = stored.Stock
	updated.Ratings = stored.Ratings
	r.s.books[book.ID] = updated
	book.Stock = stored.Stock
	book.Ratings = append([]int(nil), stored.Ratings...)
	return nil
}

func (r *BookRepository) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.books, id)
	for lid, l := range r.s.loans {
		if l.BookID == id {
			delete(r.s.loans, lid)
		}
	}
	return nil
}

func (r *BookRepository) AdjustStock(_ context.Context, id int64, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return 0, errs.ErrBookNotFound
	}
	if b.Stock+delta < 0 {
		return b.Stock, errs.ErrStockConflict
	}
	b.Stock += delta
	r.s.books[id] = b
	return b.Stock, nil
}

func (r *BookRepository) AddRating(_ context.Context, id int64, value int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return errs.ErrBookNotFound
	}
	b.Ratings = append(append([]int(nil), b.Ratings...), value)
	r.s.books[id] = b
	return nil
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, errs.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return model.User{}, errs.ErrUserNotFound
}

func (r *UserRepository) FindAll(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := sortedValues(r.s.users, func(u model.User) int64 { return u.ID })
	for i := range users {
		users[i] = users[i].Clone()
	}
	return users, nil
}

func (r *UserRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.User, error) {
	users, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := query.SortStable(users, query.Users, sort); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Save(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Email == user.Email && id != user.ID {
			return errs.ErrEmailExists
		}
	}
	if user.ID == 0 {
		r.s.userSeq++
		user.ID = r.s.userSeq
	} else if _, ok := r.s.users[user.ID]; !ok {
		return errs.ErrUserNotFound
	}
	for i := range user.Penalties {
		user.Penalties[i].UserID = user.ID
		if user.Penalties[i].ID == 0 {
			r.s.penaltySeq++
			user.Penalties[i].ID = r.s.penaltySeq
		}
	}
	r.s.users[user.ID] = user.Clone()
	return nil
}

func (r *UserRepository) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	for lid, l := range r.s.loans {
		if l.UserID == id {
			delete(r.s.loans, lid)
		}
	}
	return nil
}

type LoanRepository struct {
	s *Store
}

// view fills the denormalised book title; callers hold s.mu.
func (r *LoanRepository) view(l model.Loan) model.Loan {
	if b, ok := r.s.books[l.BookID]; ok {
		l.BookTitle = b.Title
	}
	return l
}

func (r *LoanRepository) FindByID(_ context.Context, id int64) (model.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.loans[id]
	if !ok {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	return r.view(l), nil
}

func (r *LoanRepository) FindAll(_ context.Context) ([]model.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(model.Loan) bool { return true }), nil
}

func (r *LoanRepository) filter(keep func(model.Loan) bool) []model.Loan {
	loans := make([]model.Loan, 0)
	for _, l := range sortedValues(r.s.loans, func(l model.Loan) int64 { return l.ID }) {
		if keep(l) {
			loans = append(loans, r.view(l))
		}
	}
	return loans
}

func (r *LoanRepository) FindAllSorted(ctx context.Context, sort query.Sort) ([]model.Loan, error) {
	loans, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := query.SortStable(loans, query.Loans, sort); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *LoanRepository) FindByUser(_ context.Context, userID int64) ([]model.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(l model.Loan) bool { return l.UserID == userID }), nil
}

func (r *LoanRepository) FindDueBetween(_ context.Context, from, to time.Time) ([]model.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(l model.Loan) bool {
		return !l.ReturnDate.Before(from) && l.ReturnDate.Before(to)
	}), nil
}

func (r *LoanRepository) Save(_ context.Context, loan *model.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loan.ID == 0 {
		r.s.loanSeq++
		loan.ID = r.s.loanSeq
	} else if _, ok := r.s.loans[loan.ID]; !ok {
		return errs.ErrLoanNotFound
	}
	stored := *loan
	stored.BookTitle = ""
	r.s.loans[loan.ID] = stored
	*loan = r.view(stored)
	return nil
}

func (r *LoanRepository) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.loans, id)
	return nil
}

func (r *LoanRepository) MarkPenaltyGenerated(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return false, errs.ErrLoanNotFound
	}
	if l.PenaltyGenerated {
		return false, nil
	}
	l.PenaltyGenerated = true
	r.s.loans[id] = l
	return true, nil
}

func (r *LoanRepository) UnmarkPenaltyGenerated(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return errs.ErrLoanNotFound
	}
	l.PenaltyGenerated = false
	r.s.loans[id] = l
	return nil
}
