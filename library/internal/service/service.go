package service

import (
	"time"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/repository"
	"go.uber.org/zap"
)

type Clock func() time.Time

type Repositories struct {
	Books repository.BookRepository
	Users repository.UserRepository
	Loans repository.LoanRepository
}

// Service groups the circulation components. They share one Locker so that
// user and book mutations are serialized across components.
type Service struct {
	Inventory   *Inventory
	Ledger      *Ledger
	Users       *Users
	Circulation *Circulation
}

func NewService(repos Repositories, cfg config.Circulation, log *zap.Logger, opts ...Option) *Service {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	locks := NewLocker()

	inventory := &Inventory{
		books: repos.Books,
		locks: locks,
		log:   log.Named("inventory"),
	}
	ledger := &Ledger{
		users:        repos.Users,
		locks:        locks,
		manualMonths: cfg.ManualPenaltyMonths,
		now:          o.now,
		log:          log.Named("ledger"),
	}
	return &Service{
		Inventory: inventory,
		Ledger:    ledger,
		Users: &Users{
			users:      repos.Users,
			locks:      locks,
			adminEmail: cfg.AdminEmail,
			log:        log.Named("users"),
		},
		Circulation: &Circulation{
			books:     repos.Books,
			users:     repos.Users,
			loans:     repos.Loans,
			inventory: inventory,
			ledger:    ledger,
			locks:     locks,
			cfg:       cfg,
			now:       o.now,
			log:       log.Named("circulation"),
		},
	}
}

type options struct {
	now Clock
}

type Option func(*options)

func WithClock(now Clock) Option {
	return func(o *options) {
		o.now = now
	}
}
