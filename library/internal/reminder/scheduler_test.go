package reminder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/reminder"
	"github.com/Astemirdum/library-circulation/library/internal/repository/memory"
)

type recorder struct {
	mu    sync.Mutex
	loans []int64
	fail  map[int64]bool
}

func (r *recorder) Notify(_ context.Context, loan model.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[loan.ID] {
		return errors.New("sink unavailable")
	}
	r.loans = append(r.loans, loan.ID)
	return nil
}

func (r *recorder) notified() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.loans...)
}

var now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, returnDates ...time.Time) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	book := model.Book{ISBN: "978-0441013593", Title: "Dune", Stock: 10}
	require.NoError(t, store.Books().Save(ctx, &book))
	user := model.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: model.RoleUser}
	require.NoError(t, store.Users().Save(ctx, &user))
	for _, rd := range returnDates {
		loan := model.Loan{UserID: user.ID, BookID: book.ID, ReturnDate: rd}
		require.NoError(t, store.Loans().Save(ctx, &loan))
	}
	return store
}

func TestScheduler_RunOnce(t *testing.T) {
	t.Parallel()
	cfg := config.Reminder{Interval: time.Minute, Window: 24 * time.Hour}

	tests := []struct {
		name        string
		returnDates []time.Time
		fail        map[int64]bool
		want        []int64
	}{
		{
			name: "window is half open",
			returnDates: []time.Time{
				now.Add(-time.Hour),
				now,
				now.Add(23 * time.Hour),
				now.Add(24 * time.Hour),
				now.Add(48 * time.Hour),
			},
			want: []int64{2, 3},
		},
		{
			name:        "nothing due",
			returnDates: []time.Time{now.Add(72 * time.Hour)},
			want:        nil,
		},
		{
			name:        "failed notification is skipped",
			returnDates: []time.Time{now.Add(time.Hour), now.Add(2 * time.Hour)},
			fail:        map[int64]bool{1: true},
			want:        []int64{2},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := seed(t, tt.returnDates...)
			rec := &recorder{fail: tt.fail}
			s := reminder.NewScheduler(store.Loans(), rec, cfg, zap.NewNop(),
				reminder.WithClock(func() time.Time { return now }))

			sent, err := s.RunOnce(context.Background())
			require.NoError(t, err)
			require.Equal(t, len(tt.want), sent)
			require.Equal(t, tt.want, rec.notified())
		})
	}
}

func TestScheduler_RemindsAgainWhileInWindow(t *testing.T) {
	t.Parallel()
	store := seed(t, now.Add(time.Hour))
	rec := &recorder{}
	s := reminder.NewScheduler(store.Loans(), rec, config.Reminder{Interval: time.Minute, Window: time.Hour * 24}, zap.NewNop(),
		reminder.WithClock(func() time.Time { return now }))

	for i := 0; i < 2; i++ {
		_, err := s.RunOnce(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, []int64{1, 1}, rec.notified())
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()
	store := seed(t, time.Now().Add(time.Hour))
	rec := &recorder{}
	s := reminder.NewScheduler(store.Loans(), rec, config.Reminder{Interval: 10 * time.Millisecond, Window: 24 * time.Hour}, zap.NewNop())

	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool { return len(rec.notified()) > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := len(rec.notified())
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, len(rec.notified()))
}

type slowSink struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once

	mu      sync.Mutex
	loans   []int64
	ctxErrs []error
}

func (s *slowSink) Notify(ctx context.Context, loan model.Loan) error {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = append(s.loans, loan.ID)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return nil
}

func TestScheduler_StopFinishesInFlightScan(t *testing.T) {
	t.Parallel()
	due := time.Now().Add(time.Hour)
	store := seed(t, due, due, due)
	sink := &slowSink{delay: 50 * time.Millisecond, started: make(chan struct{})}
	s := reminder.NewScheduler(store.Loans(), sink, config.Reminder{Interval: 10 * time.Millisecond, Window: 24 * time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	select {
	case <-sink.started:
	case <-time.After(time.Second):
		t.Fatal("scan did not start")
	}
	cancel()
	s.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, []int64{1, 2, 3}, sink.loans)
	require.Equal(t, []error{nil, nil, nil}, sink.ctxErrs)
}

func TestScheduler_NonPositiveIntervalIsNotStarted(t *testing.T) {
	t.Parallel()
	store := seed(t, time.Now().Add(time.Hour))
	rec := &recorder{}
	for _, interval := range []time.Duration{0, -time.Second} {
		s := reminder.NewScheduler(store.Loans(), rec, config.Reminder{Interval: interval, Window: 24 * time.Hour}, zap.NewNop())
		require.NotPanics(t, func() { s.Start(context.Background()) })
		s.Stop()
	}
	require.Empty(t, rec.notified())
}
