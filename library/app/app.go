package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-circulation/library/config"
	"github.com/Astemirdum/library-circulation/library/internal/handler"
	"github.com/Astemirdum/library-circulation/library/internal/notify"
	"github.com/Astemirdum/library-circulation/library/internal/reminder"
	"github.com/Astemirdum/library-circulation/library/internal/repository/memory"
	pgrepo "github.com/Astemirdum/library-circulation/library/internal/repository/postgres"
	"github.com/Astemirdum/library-circulation/library/internal/server"
	"github.com/Astemirdum/library-circulation/library/internal/service"
	"github.com/Astemirdum/library-circulation/library/migrations"
	"github.com/Astemirdum/library-circulation/pkg/circuit_breaker"
	"github.com/Astemirdum/library-circulation/pkg/kafka"
	"github.com/Astemirdum/library-circulation/pkg/logger"
	"github.com/Astemirdum/library-circulation/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	repos, closeRepos, err := newRepositories(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("repositories %w", err)
	}
	defer closeRepos()
	svc := service.NewService(repos, cfg.Circulation, log)

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return fmt.Errorf("notifier %w", err)
	}
	if c, ok := notifier.(io.Closer); ok {
		defer c.Close()
	}
	scheduler := reminder.NewScheduler(repos.Loans, notifier, cfg.Reminder, log)
	if cfg.Reminder.Enabled {
		scheduler.Start(ctx)
	}

	gg, gctx := errgroup.WithContext(ctx)
	if cfg.Kafka.ConsumeReturns {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.LibraryConsumerGroup)
		if err != nil {
			return fmt.Errorf("kafka.NewConsumer %w", err)
		}
		defer consumer.Close()
		gg.Go(func() error {
			kafka.Consume(gctx, consumer, handler.NewConsumer(svc.Circulation.ReturnLoan, log), log, kafka.LoanReturnsTopic)
			return nil
		})
	}

	h := handler.New(svc.Inventory, svc.Users, svc.Ledger, svc.Circulation, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	gg.Go(func() error {
		return srv.Run()
	})
	gg.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		scheduler.Stop()
		return srv.Stop(closeCtx)
	})

	if err := gg.Wait(); err != nil {
		log.Error("shutdown", zap.Error(err))
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Repositories, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		log.Warn("in-memory storage, data is lost on restart")
		return service.Repositories{
			Books: store.Books(),
			Users: store.Users(),
			Loans: store.Loans(),
		}, func() {}, nil
	case config.StoragePostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return service.Repositories{}, nil, fmt.Errorf("db init %w", err)
		}
		return service.Repositories{
			Books: pgrepo.NewBookRepository(db, log),
			Users: pgrepo.NewUserRepository(db, log),
			Loans: pgrepo.NewLoanRepository(db, log),
		}, func() { db.Close() }, nil
	default:
		return service.Repositories{}, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newNotifier(cfg *config.Config, log *zap.Logger) (notify.Notifier, error) {
	switch cfg.Notifier.Driver {
	case config.NotifierLog:
		return notify.NewLogNotifier(log), nil
	case config.NotifierKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka.NewProducer %w", err)
		}
		cb := circuit_breaker.New(cfg.Breaker)
		return notify.NewKafkaNotifier(producer, cb, kafka.LoanRemindersTopic, log), nil
	case config.NotifierAMQP:
		return notify.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue, log)
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
	}
}
