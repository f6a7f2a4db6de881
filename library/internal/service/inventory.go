package service

import (
	"context"
	"fmt"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
	"go.uber.org/zap"
)

type Inventory struct {
	books repository.BookRepository
	locks *Locker
	log   *zap.Logger
}

func (s *Inventory) FindByID(ctx context.Context, id int64) (model.Book, error) {
	return s.books.FindByID(ctx, id)
}

func (s *Inventory) FindByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return s.books.FindByISBN(ctx, isbn)
}

func (s *Inventory) AddBook(ctx context.Context, book model.Book) (model.Book, error) {
	if book.Stock < 0 {
		return model.Book{}, fmt.Errorf("%w: negative stock", errs.ErrValidation)
	}
	for _, r := range book.Ratings {
		if r < 1 || r > 5 {
			return model.Book{}, errs.ErrInvalidRating
		}
	}
	book.ID = 0
	if err := s.books.Save(ctx, &book); err != nil {
		return model.Book{}, err
	}
	s.log.Info("book added", zap.Int64("book_id", book.ID), zap.String("isbn", book.ISBN))
	return book, nil
}

// UpdateBook changes title, authors and genres. The ISBN is immutable and
// stock only moves through the stock operations.
func (s *Inventory) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	unlock := s.locks.Lock(bookKey(book.ID))
	defer unlock()

	stored, err := s.books.FindByID(ctx, book.ID)
	if err != nil {
		return model.Book{}, err
	}
	if stored.ISBN != book.ISBN {
		return model.Book{}, errs.ErrIsbnImmutable
	}
	if err := s.books.Save(ctx, &book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (s *Inventory) RemoveBook(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(bookKey(id))
	defer unlock()
	return s.books.DeleteByID(ctx, id)
}

func (s *Inventory) AddCopies(ctx context.Context, id int64, n int) (model.Book, error) {
	if n <= 0 {
		return model.Book{}, fmt.Errorf("%w: copies must be positive", errs.ErrValidation)
	}
	unlock := s.locks.Lock(bookKey(id))
	defer unlock()
	if _, err := s.adjust(ctx, id, n); err != nil {
		return model.Book{}, err
	}
	return s.books.FindByID(ctx, id)
}

// DecrementStock fails with errs.ErrBookNotFound for an unknown book and with
// errs.ErrStockConflict when no copy is left.
func (s *Inventory) DecrementStock(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(bookKey(id))
	defer unlock()
	_, err := s.adjust(ctx, id, -1)
	return err
}

func (s *Inventory) IncrementStock(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(bookKey(id))
	defer unlock()
	_, err := s.adjust(ctx, id, 1)
	return err
}

// adjust expects the caller to hold the book lock.
func (s *Inventory) adjust(ctx context.Context, id int64, delta int) (int, error) {
	stock, err := s.books.AdjustStock(ctx, id, delta)
	if err != nil {
		return stock, err
	}
	s.log.Debug("stock adjusted", zap.Int64("book_id", id), zap.Int("delta", delta), zap.Int("stock", stock))
	return stock, nil
}

// AverageRating fails with errs.ErrNoRatings for a book without ratings.
func (s *Inventory) AverageRating(ctx context.Context, id int64) (float64, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return book.AverageRating()
}

func (s *Inventory) Rate(ctx context.Context, id int64, value int) error {
	if value < 1 || value > 5 {
		return errs.ErrInvalidRating
	}
	return s.books.AddRating(ctx, id, value)
}

func (s *Inventory) ListBooks(ctx context.Context, spec query.Spec) (model.List[model.Book], error) {
	if err := spec.Validate(); err != nil {
		return model.List[model.Book]{}, err
	}
	books, err := s.books.FindAllSorted(ctx, query.ByIDAsc)
	if err != nil {
		return model.List[model.Book]{}, err
	}
	return query.Search(books, query.Books, spec)
}
