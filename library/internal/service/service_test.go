package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/repository/memory"
	"github.com/Astemirdum/library-circulation/library/internal/service"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testCfg = config.Circulation{
	MaxPenalties:         2,
	ManualPenaltyMonths:  1,
	OverduePenaltyMonths: 2,
	LoanPeriod:           14 * 24 * time.Hour,
	AdminEmail:           "admin@library.org",
}

type fixture struct {
	svc   *service.Service
	store *memory.Store
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := service.NewService(service.Repositories{
		Books: store.Books(),
		Users: store.Users(),
		Loans: store.Loans(),
	}, testCfg, zap.NewNop(), service.WithClock(clk.Now))
	return &fixture{svc: svc, store: store, clock: clk}
}

func (f *fixture) book(t *testing.T, title string, stock int) model.Book {
	t.Helper()
	b, err := f.svc.Inventory.AddBook(context.Background(), model.Book{
		ISBN:    "isbn-" + title,
		Title:   title,
		Authors: []model.Author{{Name: "Frank Herbert"}},
		Genres:  []model.Genre{{Name: "Science Fiction"}},
		Stock:   stock,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) user(t *testing.T, email string) model.User {
	t.Helper()
	u, err := f.svc.Users.Register(context.Background(), model.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) penalize(t *testing.T, userID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.svc.Ledger.AddPenalty(context.Background(), userID, 1)
		require.NoError(t, err)
	}
}

func (f *fixture) stock(t *testing.T, bookID int64) int {
	t.Helper()
	b, err := f.svc.Inventory.FindByID(context.Background(), bookID)
	require.NoError(t, err)
	return b.Stock
}
