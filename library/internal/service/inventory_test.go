package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
)

func TestInventory_Stock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 1)

	require.NoError(t, f.svc.Inventory.DecrementStock(ctx, b.ID))
	require.Zero(t, f.stock(t, b.ID))

	err := f.svc.Inventory.DecrementStock(ctx, b.ID)
	require.ErrorIs(t, err, errs.ErrStockConflict)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Zero(t, f.stock(t, b.ID))

	require.NoError(t, f.svc.Inventory.IncrementStock(ctx, b.ID))
	require.Equal(t, 1, f.stock(t, b.ID))

	require.ErrorIs(t, f.svc.Inventory.DecrementStock(ctx, 404), errs.ErrBookNotFound)
	require.ErrorIs(t, f.svc.Inventory.IncrementStock(ctx, 404), errs.ErrBookNotFound)

	got, err := f.svc.Inventory.AddCopies(ctx, b.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 5, got.Stock)
	_, err = f.svc.Inventory.AddCopies(ctx, b.ID, 0)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestInventory_Lookup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 1)

	got, err := f.svc.Inventory.FindByISBN(ctx, b.ISBN)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
	require.Equal(t, "Frank Herbert", got.Authors[0].Name)

	_, err = f.svc.Inventory.FindByISBN(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrBookNotFound)
	_, err = f.svc.Inventory.FindByID(ctx, 404)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInventory_AddBook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 1)

	_, err := f.svc.Inventory.AddBook(ctx, model.Book{ISBN: b.ISBN, Title: "Dune Messiah"})
	require.ErrorIs(t, err, errs.ErrIsbnExists)
	_, err = f.svc.Inventory.AddBook(ctx, model.Book{ISBN: "x", Title: "x", Stock: -1})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.svc.Inventory.AddBook(ctx, model.Book{ISBN: "y", Title: "y", Ratings: []int{6}})
	require.ErrorIs(t, err, errs.ErrInvalidRating)
}

func TestInventory_UpdateBook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 3)

	upd := b
	upd.Title = "Dune (Deluxe)"
	upd.Stock = 100
	got, err := f.svc.Inventory.UpdateBook(ctx, upd)
	require.NoError(t, err)
	require.Equal(t, "Dune (Deluxe)", got.Title)
	require.Equal(t, 3, got.Stock)

	upd.ISBN = "other"
	_, err = f.svc.Inventory.UpdateBook(ctx, upd)
	require.ErrorIs(t, err, errs.ErrIsbnImmutable)

	upd.ID = 404
	_, err = f.svc.Inventory.UpdateBook(ctx, upd)
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestInventory_RemoveBook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 2)
	u := f.user(t, "ada@example.com")
	loan, err := f.svc.Circulation.ApproveLoan(ctx, model.LoanRequest{UserID: u.ID, BookID: b.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Inventory.RemoveBook(ctx, b.ID))
	_, err = f.svc.Inventory.FindByID(ctx, b.ID)
	require.ErrorIs(t, err, errs.ErrBookNotFound)
	_, err = f.svc.Circulation.FindLoan(ctx, loan.ID)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
	require.NoError(t, f.svc.Inventory.RemoveBook(ctx, b.ID))
}

func TestInventory_Rating(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, "Dune", 1)

	_, err := f.svc.Inventory.AverageRating(ctx, b.ID)
	require.ErrorIs(t, err, errs.ErrNoRatings)

	for _, v := range []int{5, 4, 4} {
		require.NoError(t, f.svc.Inventory.Rate(ctx, b.ID, v))
	}
	avg, err := f.svc.Inventory.AverageRating(ctx, b.ID)
	require.NoError(t, err)
	require.InDelta(t, 13.0/3.0, avg, 1e-9)

	require.ErrorIs(t, f.svc.Inventory.Rate(ctx, b.ID, 0), errs.ErrInvalidRating)
	require.ErrorIs(t, f.svc.Inventory.Rate(ctx, b.ID, 6), errs.ErrInvalidRating)
	require.ErrorIs(t, f.svc.Inventory.Rate(ctx, 404, 3), errs.ErrBookNotFound)
}

func TestInventory_ListBooks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"Fantasy Tales", "Dune", "Another Fantasy"} {
		f.book(t, title, 1)
	}

	spec, err := query.NewSpec("fantasy", "title", "ASC", 0, 10)
	require.NoError(t, err)
	got, err := f.svc.Inventory.ListBooks(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, 2, got.TotalElements)
	require.Equal(t, "Another Fantasy", got.Items[0].Title)
	require.Equal(t, "Fantasy Tales", got.Items[1].Title)

	spec.Page = 5
	got, err = f.svc.Inventory.ListBooks(ctx, spec)
	require.NoError(t, err)
	require.Empty(t, got.Items)
	require.Equal(t, 2, got.TotalElements)

	_, err = f.svc.Inventory.ListBooks(ctx, query.Spec{Sort: query.Sort{Field: "stock", Direction: query.ASC}, Size: 10})
	require.ErrorIs(t, err, errs.ErrInvalidSortSpec)
}
