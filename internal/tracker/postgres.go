package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig tunes the pgx pool behind the Postgres tracker.
type PostgresConfig struct {
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultPostgresConfig is used when the opener's Pool is zero.
var DefaultPostgresConfig = PostgresConfig{
	MaxConns:        8,
	MaxConnLifetime: 30 * time.Minute,
	MaxConnIdleTime: 5 * time.Minute,
	DialTimeout:     5 * time.Second,
}

// PostgresOpener opens a Postgres table; storeID is the table name and
// credentials is the connection string.
type PostgresOpener struct {
	Pool            PostgresConfig
	CreateIfMissing bool
	Logger          *slog.Logger
}

func (o PostgresOpener) Open(ctx context.Context, table, dsn string) (Sheet, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres connection string", ErrMissingCredentials)
	}
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	cfg := o.Pool
	if cfg == (PostgresConfig{}) {
		cfg = DefaultPostgresConfig
	}

	pool, err := openPool(ctx, dsn, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if o.CreateIfMissing {
		if _, err := pool.Exec(ctx, postgresDialect.createTable(table)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%w: create %s: %w", ErrWrite, table, err)
		}
	}
	var rows int
	if err := pool.QueryRow(ctx, postgresDialect.count(table)).Scan(&rows); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: table %s: %w", ErrNotFound, table, err)
	}
	logger.Info("tracker.postgres.open", "table", table, "rows", rows)

	return &pgSheet{pool: pool, table: table}, nil
}

func openPool(ctx context.Context, dsn string, cfg PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("tracker.postgres.config", "error", err)
		return nil, err
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "jobs-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("tracker.postgres.connect", "error", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("tracker.postgres.ping", "error", err)
		return nil, err
	}
	return pool, nil
}

type pgSheet struct {
	pool  *pgxpool.Pool
	table string
}

func (s *pgSheet) AppendRow(ctx context.Context, values []string) (int, error) {
	if len(values) != len(columnNames) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrWrite, len(values), len(columnNames))
	}
	query, args := postgresDialect.insert(s.table, values)

	var n int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		return tx.QueryRow(ctx, postgresDialect.count(s.table)).Scan(&n)
	})
	if err != nil {
		return 0, writeErr(err)
	}
	return n, nil
}

func (s *pgSheet) Close() error {
	s.pool.Close()
	return nil
}
