// Package postgres implements the lead and user stores on PostgreSQL using
// pgx. Every operation runs through a retry + circuit breaker pipeline with
// a per-attempt timeout; transient failures surface as *domain.ErrUnavailable
// while business outcomes (not found, duplicate) pass through untouched.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/vinayakry63/lead-manager/internal/config"
	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/infra/resilience"
)

//go:embed schema.sql
var schemaSQL string

// Store is the pgx-backed implementation of port.LeadStore and port.UserStore.
type Store struct {
	pool    *pgxpool.Pool
	cb      *gobreaker.CircuitBreaker
	bh      *resilience.Bulkhead
	retry   resilience.Config
	timeout time.Duration
	logger  *zap.Logger
}

// New connects to PostgreSQL and verifies the connection with a ping.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{
		pool: pool,
		// Expected business outcomes count as success so they never trip
		// the breaker; only transient failures do.
		cb: resilience.NewCircuitBreaker("postgres", func(err error) bool {
			return err == nil || !isTransient(err)
		}),
		bh: resilience.NewBulkhead(cfg.MaxConcurrency),
		retry: resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		timeout: cfg.StoreTimeout,
		logger:  logger,
	}, nil
}

// EnsureSchema applies the embedded schema. All statements are idempotent,
// so this is safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// do runs one store operation through retry and the circuit breaker with a
// per-attempt timeout. Non-transient errors are marked permanent so retry
// stops immediately and the breaker stays closed.
func (s *Store) do(ctx context.Context, op string, fn func(context.Context) error) error {
	// The bulkhead caps concurrent store work beyond what the pool itself
	// allows, so a burst queues here instead of piling onto the database.
	if err := s.bh.Acquire(ctx); err != nil {
		return &domain.ErrUnavailable{Op: op, Err: err}
	}
	defer s.bh.Release()

	_, err := s.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.retry, func() error {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			err := fn(opCtx)
			if err != nil && !isTransient(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || isTransient(err) {
		s.logger.Warn("store unavailable",
			zap.String("op", op),
			zap.Error(err),
		)
		return &domain.ErrUnavailable{Op: op, Err: err}
	}
	return err
}

// isTransient reports whether an error is worth retrying: timeouts, network
// failures, and PostgreSQL connection/resource conditions. Constraint
// violations and missing rows are not transient.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx connection exception, 53xxx insufficient resources,
		// 57P01 admin shutdown.
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "57P01"
	}
	return false
}

// isUniqueViolation reports whether err is a unique constraint violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
