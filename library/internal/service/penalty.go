package service

import (
	"context"
	"slices"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/metrics"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
	"go.uber.org/zap"
)

// Ledger owns the penalty set of every user. Mutations run under the user lock.
type Ledger struct {
	users        repository.UserRepository
	locks        *Locker
	manualMonths int
	now          Clock
	log          *zap.Logger
}

func (l *Ledger) Penalties(ctx context.Context, userID int64) ([]model.Penalty, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Penalties, nil
}

func (l *Ledger) ActivePenaltyCount(ctx context.Context, userID int64) (int, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.ActivePenalties(l.now()), nil
}

// AddPenalty adds a penalty expiring months from now. Zero months means the
// configured manual default.
func (l *Ledger) AddPenalty(ctx context.Context, userID int64, months int) (model.Penalty, error) {
	if months == 0 {
		months = l.manualMonths
	}
	if months <= 0 {
		return model.Penalty{}, errs.ErrInvalidMonths
	}
	unlock := l.locks.Lock(userKey(userID))
	defer unlock()
	return l.addPenalty(ctx, userID, months, metrics.PenaltyManual)
}

// addPenalty expects the caller to hold the user lock.
func (l *Ledger) addPenalty(ctx context.Context, userID int64, months int, kind string) (model.Penalty, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return model.Penalty{}, err
	}
	user.Penalties = append(user.Penalties, model.NewPenalty(user.ID, l.now(), months))
	if err := l.users.Save(ctx, &user); err != nil {
		return model.Penalty{}, err
	}
	p := user.Penalties[len(user.Penalties)-1]
	metrics.PenaltiesAdded.WithLabelValues(kind).Inc()
	l.log.Info("penalty added",
		zap.Int64("user_id", userID),
		zap.Int64("penalty_id", p.ID),
		zap.String("kind", kind),
		zap.Time("expires_at", p.ExpiresAt))
	return p, nil
}

// RemoveExpired drops every penalty whose expiry date has passed and returns
// how many were removed.
func (l *Ledger) RemoveExpired(ctx context.Context, userID int64) (int, error) {
	unlock := l.locks.Lock(userKey(userID))
	defer unlock()

	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := l.now()
	kept := slices.DeleteFunc(slices.Clone(user.Penalties), func(p model.Penalty) bool {
		return p.Expired(now)
	})
	removed := len(user.Penalties) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	user.Penalties = kept
	if err := l.users.Save(ctx, &user); err != nil {
		return 0, err
	}
	metrics.PenaltiesRemoved.Add(float64(removed))
	l.log.Info("expired penalties removed", zap.Int64("user_id", userID), zap.Int("removed", removed))
	return removed, nil
}

// RemoveByID is a no-op when the user has no such penalty.
func (l *Ledger) RemoveByID(ctx context.Context, userID, penaltyID int64) error {
	unlock := l.locks.Lock(userKey(userID))
	defer unlock()

	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(user.Penalties, func(p model.Penalty) bool { return p.ID == penaltyID })
	if idx < 0 {
		return nil
	}
	user.Penalties = slices.Delete(user.Penalties, idx, idx+1)
	if err := l.users.Save(ctx, &user); err != nil {
		return err
	}
	metrics.PenaltiesRemoved.Inc()
	return nil
}
