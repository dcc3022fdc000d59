package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/attaboy/faketoto/internal/guard"
	"github.com/attaboy/faketoto/internal/infra"
	"github.com/attaboy/faketoto/internal/ledger"
	"github.com/attaboy/faketoto/internal/projection"
	"github.com/attaboy/faketoto/internal/repository"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/attaboy/faketoto/internal/sportsbook"
)

// storage is the persistence wiring selected by STORE_BACKEND.
type storage struct {
	store       ledger.Store
	journal     ledger.Journal
	outbox      sportsbook.Outbox
	rounds      session.RoundRecorder
	idempotency guard.Idempotency
	health      map[string]infra.Pinger
	closers     []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (*storage, error) {
	st := &storage{health: make(map[string]infra.Pinger)}

	switch cfg.StoreBackend {
	case infra.StoreMemory:
		st.store = projection.NewBalanceStore(projection.NewInMemoryStore())

	case infra.StoreRedis:
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		st.closers = append(st.closers, func() { rdb.Close() })
		st.store = projection.NewBalanceStore(projection.NewRedisStore(rdb))
		st.idempotency = guard.NewRedisIdempotencyGuard(rdb, guard.DefaultIdempotencyTTL)
		st.health["redis"] = infra.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("connected to redis")

	case infra.StorePostgres:
		if cfg.RunMigrations {
			if err := infra.RunMigrations("postgres", cfg.DSN(), logger); err != nil {
				return nil, err
			}
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		st.store = repository.NewPostgresBalanceStore(pool)
		st.journal = repository.NewJournal(pool)
		st.outbox = repository.NewOutboxStore(pool)
		st.rounds = repository.NewRoundStore(pool)
		st.health["postgres"] = pool
		logger.Info("connected to postgres")

	default:
		path := cfg.SQLitePath()
		db, err := infra.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { db.Close() })
		if cfg.RunMigrations {
			if err := infra.RunMigrations("sqlite", infra.SQLiteURL(path), logger); err != nil {
				st.close()
				return nil, err
			}
		}
		st.store = repository.NewSQLiteBalanceStore(db)
		st.journal = repository.NewSQLiteJournal(db)
		st.health["sqlite"] = infra.PingFunc(db.PingContext)
		logger.Info("opened sqlite store", "path", path)
	}

	if st.idempotency == nil {
		st.idempotency = guard.NewIdempotencyGuard(guard.DefaultIdempotencyTTL)
	}
	return st, nil
}
