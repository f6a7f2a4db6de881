package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errService := errors.New("service error")
	ok := func() error { return nil }
	fail := func() error { return errService }

	cfg := Config{
		RecordLength:     10,
		Timeout:          2 * time.Second,
		Percentile:       0.3,
		RecoveryRequests: 3,
	}

	tests := []struct {
		name string
		run  func(t *testing.T, cb *circuitBreaker, clock *fakeClock)
	}{
		{
			name: "stays closed on success",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 50; i++ {
					require.NoError(t, cb.Call(ok))
				}
				require.Equal(t, Closed, cb.State())
			},
		},
		{
			name: "opens when failure ratio reached",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 2; i++ {
					require.ErrorIs(t, cb.Call(fail), errService)
				}
				require.Equal(t, Closed, cb.State())
				require.ErrorIs(t, cb.Call(fail), errService)
				require.Equal(t, Open, cb.State())

				called := false
				err := cb.Call(func() error { called = true; return nil })
				require.ErrorIs(t, err, ErrOpenCB)
				require.False(t, called)
			},
		},
		{
			name: "half-open recovers after successful probes",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				require.Equal(t, Open, cb.State())

				clock.advance(3 * time.Second)
				require.NoError(t, cb.Call(ok))
				require.Equal(t, HalfOpen, cb.State())
				require.NoError(t, cb.Call(ok))
				require.NoError(t, cb.Call(ok))
				require.Equal(t, Closed, cb.State())
			},
		},
		{
			name: "half-open failure reopens",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				clock.advance(3 * time.Second)
				require.ErrorIs(t, cb.Call(fail), errService)
				require.Equal(t, Open, cb.State())
				require.ErrorIs(t, cb.Call(ok), ErrOpenCB)
			},
		},
		{
			name: "reset closes",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(fail)
				}
				cb.Reset()
				require.Equal(t, Closed, cb.State())
				require.NoError(t, cb.Call(ok))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			cb := newWithClock(cfg, clock.now)
			tt.run(t, cb, clock)
		})
	}
}
