package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriguide/nutriload/internal/retry"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// The pipeline is sequential, so the pool only ever needs one connection
// for writes and one spare for administrative queries.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// StandardConnector opens a pgx pool with username/password authentication,
// retrying transient failures.
type StandardConnector struct {
	config   *nutriload.ConnectionConfig
	logger   nutriload.Logger
	executor *retry.Executor
}

// NewStandardConnector panics if config or logger is nil.
func NewStandardConnector(config *nutriload.ConnectionConfig, logger nutriload.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	strategy := retry.NewBackoff(nutriload.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(nutriload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(nutriload.DefaultRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewPGClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("Connection attempt %d to %s:%d failed, retrying in %v: %v",
				attempt+1, config.Host, config.Port, delay, err)
		})

	return &StandardConnector{config: config, logger: logger, executor: executor}
}

// Connect returns a pinged pool. The caller owns the pool and must close it.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(c.config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	c.configurePool(poolConfig)

	c.logger.Verbose("Connecting to %s:%d/%s as %s", c.config.Host, c.config.Port, c.config.Database, c.config.Username)

	return retry.DoValue(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		return pool, nil
	})
}

func (c *StandardConnector) configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		c.logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

var _ nutriload.Connector = (*StandardConnector)(nil)

type connectionHint struct {
	patterns []string
	headline func(host string, port int, database string) string
	causes   []string
}

var connectionHints = []connectionHint{
	{
		patterns: []string{"connection refused", "actively refused"},
		headline: func(h string, p int, _ string) string { return fmt.Sprintf("connection refused to %s:%d", h, p) },
		causes: []string{
			"PostgreSQL is not running (check: pg_isready)",
			"Wrong host or port",
			"Firewall blocking the connection",
		},
	},
	{
		patterns: []string{"no such host", "no host"},
		headline: func(h string, _ int, _ string) string { return fmt.Sprintf("cannot resolve host %q", h) },
		causes: []string{
			"Hostname is misspelled (check $PGHOST or $DB_HOST)",
			"DNS is not configured or reachable",
		},
	},
	{
		patterns: []string{"password authentication failed"},
		headline: func(_ string, _ int, d string) string {
			return fmt.Sprintf("password authentication failed for database %q", d)
		},
		causes: []string{
			"Wrong password (check $PGPASSWORD, $DB_PASSWORD or ~/.pgpass)",
			"Wrong username",
		},
	},
	{
		patterns: []string{"does not exist"},
		headline: func(_ string, _ int, d string) string { return fmt.Sprintf("database %q does not exist", d) },
		causes: []string{
			"Run with --create-db to create it through the maintenance database",
			"Or create it manually: createdb <name>",
		},
	},
	{
		patterns: []string{"timeout", "timed out"},
		headline: func(h string, p int, _ string) string { return fmt.Sprintf("connection timed out to %s:%d", h, p) },
		causes: []string{
			"Server is overloaded or unresponsive",
			"Firewall silently dropping packets",
			"Wrong host or port",
		},
	},
	{
		patterns: []string{"ssl", "tls"},
		headline: func(string, int, string) string { return "SSL/TLS connection error" },
		causes: []string{
			"Server requires SSL but --sslmode is wrong",
			"Certificate verification failed (try --sslmode=require)",
		},
	},
	{
		patterns: []string{"too many connections"},
		headline: func(_ string, _ int, d string) string {
			return fmt.Sprintf("too many connections to database %q", d)
		},
		causes: []string{
			"max_connections limit reached in postgresql.conf",
			"Stale connections from an earlier run",
		},
	},
}

// wrapConnectionError adds actionable guidance to raw pgx connection errors.
// The result wraps both err and nutriload.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	msg := strings.ToLower(err.Error())

	for _, hint := range connectionHints {
		if !containsAny(msg, hint.patterns) {
			continue
		}
		var b strings.Builder
		b.WriteString(hint.headline(host, port, database))
		b.WriteString("\n\nPossible causes:\n")
		for _, cause := range hint.causes {
			b.WriteString("  - ")
			b.WriteString(cause)
			b.WriteString("\n")
		}
		return fmt.Errorf("%w: %s\nOriginal error: %w", nutriload.ErrConnectionFailed, b.String(), err)
	}

	return fmt.Errorf("%w: failed to connect to database: %w", nutriload.ErrConnectionFailed, err)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
