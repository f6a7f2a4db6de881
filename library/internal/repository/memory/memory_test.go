package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
	"github.com/Astemirdum/library-circulation/library/internal/repository/memory"
)

func TestBookRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewStore()
	books := store.Books()

	dune := model.Book{ISBN: "1", Title: "Dune", Stock: 1, Authors: []model.Author{{Name: "Frank Herbert"}}}
	require.NoError(t, books.Save(ctx, &dune))
	require.NotZero(t, dune.ID)
	require.NotZero(t, dune.Authors[0].ID)

	dup := model.Book{ISBN: "1", Title: "Other"}
	require.ErrorIs(t, books.Save(ctx, &dup), errs.ErrIsbnExists)

	// returned values are copies
	got, err := books.FindByID(ctx, dune.ID)
	require.NoError(t, err)
	got.Authors[0].Name = "changed"
	again, err := books.FindByID(ctx, dune.ID)
	require.NoError(t, err)
	require.Equal(t, "Frank Herbert", again.Authors[0].Name)

	stock, err := books.AdjustStock(ctx, dune.ID, -1)
	require.NoError(t, err)
	require.Zero(t, stock)
	_, err = books.AdjustStock(ctx, dune.ID, -1)
	require.ErrorIs(t, err, errs.ErrStockConflict)
	_, err = books.AdjustStock(ctx, 404, 1)
	require.ErrorIs(t, err, errs.ErrBookNotFound)

	// updates keep stock and ratings
	require.NoError(t, books.AddRating(ctx, dune.ID, 5))
	upd := dune
	upd.Title = "Dune!"
	upd.Stock = 50
	upd.Ratings = nil
	require.NoError(t, books.Save(ctx, &upd))
	require.Zero(t, upd.Stock)
	require.Equal(t, []int{5}, upd.Ratings)

	emma := model.Book{ISBN: "2", Title: "Emma"}
	require.NoError(t, books.Save(ctx, &emma))
	sorted, err := books.FindAllSorted(ctx, query.Sort{Field: query.SortByValue, Direction: query.DESC})
	require.NoError(t, err)
	require.Equal(t, []int64{dune.ID, emma.ID}, []int64{sorted[0].ID, sorted[1].ID})
}

func TestLoanRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	book := model.Book{ISBN: "1", Title: "Dune", Stock: 3}
	require.NoError(t, store.Books().Save(ctx, &book))
	user := model.User{Email: "ada@example.com"}
	require.NoError(t, store.Users().Save(ctx, &user))

	due := model.Loan{UserID: user.ID, BookID: book.ID, ReturnDate: now.Add(time.Hour)}
	later := model.Loan{UserID: user.ID, BookID: book.ID, ReturnDate: now.Add(48 * time.Hour)}
	require.NoError(t, store.Loans().Save(ctx, &due))
	require.NoError(t, store.Loans().Save(ctx, &later))
	require.Equal(t, "Dune", due.BookTitle)

	got, err := store.Loans().FindDueBetween(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, due.ID, got[0].ID)

	marked, err := store.Loans().MarkPenaltyGenerated(ctx, due.ID)
	require.NoError(t, err)
	require.True(t, marked)
	marked, err = store.Loans().MarkPenaltyGenerated(ctx, due.ID)
	require.NoError(t, err)
	require.False(t, marked)
	require.NoError(t, store.Loans().UnmarkPenaltyGenerated(ctx, due.ID))
	_, err = store.Loans().MarkPenaltyGenerated(ctx, 404)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)

	require.NoError(t, store.Users().DeleteByID(ctx, user.ID))
	loans, err := store.Loans().FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, loans)
}

func TestUserRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := memory.NewStore().Users()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ada := model.User{FirstName: "Ada", Email: "ada@example.com"}
	require.NoError(t, users.Save(ctx, &ada))
	dup := model.User{Email: "ada@example.com"}
	require.ErrorIs(t, users.Save(ctx, &dup), errs.ErrEmailExists)

	ada.Penalties = append(ada.Penalties, model.NewPenalty(0, now, 1))
	require.NoError(t, users.Save(ctx, &ada))
	require.NotZero(t, ada.Penalties[0].ID)
	require.Equal(t, ada.ID, ada.Penalties[0].UserID)

	got, err := users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, got.Penalties, 1)

	ghost := model.User{ID: 404, Email: "ghost@example.com"}
	require.ErrorIs(t, users.Save(ctx, &ghost), errs.ErrUserNotFound)
}
