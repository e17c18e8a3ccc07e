package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/config"
	"veggie-trivia-service/internal/infra/file"
	"veggie-trivia-service/internal/infra/memory"
	"veggie-trivia-service/internal/infra/postgres"
	redisstore "veggie-trivia-service/internal/infra/redis"
	"veggie-trivia-service/internal/infra/sqlite"
	"veggie-trivia-service/internal/questionbank"
)

const defaultSessionTTL = 2 * time.Hour

// backends holds the connections opened for one process and closes them
// in reverse order.
type backends struct {
	cfg     config.Config
	redis   *redis.Client
	pg      *pgxpool.Pool
	closers []func() error
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{cfg: cfg}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, b.redis.Close)
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pg = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
	}
	return b, nil
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *backends) questionLoader() (app.QuestionLoader, error) {
	switch b.cfg.Questions.Source {
	case "file":
		return questionbank.NewFileLoader(b.cfg.Questions.Path), nil
	case "postgres":
		if b.pg == nil {
			return nil, fmt.Errorf("questions source postgres requires POSTGRES_URL")
		}
		return postgres.NewQuestionLoader(b.pg), nil
	default:
		return nil, fmt.Errorf("unknown questions source %q", b.cfg.Questions.Source)
	}
}

func (b *backends) leaderboard() (app.LeaderboardStore, error) {
	switch b.cfg.Leaderboard.Backend {
	case "memory":
		return memory.NewLeaderboardStore(), nil
	case "file":
		store, err := file.Open(b.cfg.Leaderboard.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.Open(b.cfg.Leaderboard.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		return store, nil
	case "redis":
		if b.redis == nil {
			return nil, fmt.Errorf("leaderboard backend redis requires REDIS_ADDR")
		}
		return redisstore.NewLeaderboardStore(b.redis), nil
	case "postgres":
		if b.pg == nil {
			return nil, fmt.Errorf("leaderboard backend postgres requires POSTGRES_URL")
		}
		return postgres.NewLeaderboardStore(b.pg), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", b.cfg.Leaderboard.Backend)
	}
}

// sessions returns the session store plus, for the in-memory store, a
// sweep function that drops expired sessions.
func (b *backends) sessions() (app.SessionStore, func() int, error) {
	ttl := config.TTLDuration(b.cfg.Session.TTL, defaultSessionTTL)
	switch b.cfg.Session.Store {
	case "memory":
		store := memory.NewSessionStore(ttl)
		return store, store.Sweep, nil
	case "redis":
		if b.redis == nil {
			return nil, nil, fmt.Errorf("session store redis requires REDIS_ADDR")
		}
		return redisstore.NewSessionStore(b.redis, ttl), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", b.cfg.Session.Store)
	}
}

func (b *backends) ping(ctx context.Context) error {
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if b.pg != nil {
		if err := b.pg.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

func logBackends(cfg config.Config) {
	log.Printf("questions=%s leaderboard=%s sessions=%s", cfg.Questions.Source, cfg.Leaderboard.Backend, cfg.Session.Store)
}
