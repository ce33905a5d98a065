package htmlcache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache uses. pgxmock implements
// it too, which is what the unit tests rely on.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresCache implements Cache using pgxpool, for deployments where
// several workers share one cache.
type PostgresCache struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache operations.
var preparedStatements = map[string]string{
	"get_html":            `SELECT html FROM html_cache WHERE url_hash = $1 AND expires_at > now()`,
	"set_html":            `INSERT INTO html_cache (id, url_hash, url, html, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (url_hash) DO UPDATE SET url = $3, html = $4, fetched_at = $5, expires_at = $6`,
	"delete_expired_html": `DELETE FROM html_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresCache with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresCache, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare hot statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresCache{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS html_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url_hash   TEXT NOT NULL UNIQUE,
	url        TEXT NOT NULL,
	html       TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_html_cache_url_hash ON html_cache(url_hash);
CREATE INDEX IF NOT EXISTS idx_html_cache_expires_at ON html_cache(expires_at);
`

func (c *PostgresCache) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (c *PostgresCache) Ping(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresCache) GetHTML(ctx context.Context, url string) (string, error) {
	var html string
	err := c.pool.QueryRow(ctx,
		`SELECT html FROM html_cache
		 WHERE url_hash = $1 AND expires_at > now()`,
		urlKey(url),
	).Scan(&html)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrap(err, "postgres: get html")
	}
	return html, nil
}

func (c *PostgresCache) SetHTML(ctx context.Context, url string, html string, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := c.pool.Exec(ctx,
		`INSERT INTO html_cache (id, url_hash, url, html, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (url_hash) DO UPDATE SET url = $3, html = $4, fetched_at = $5, expires_at = $6`,
		id, urlKey(url), url, html, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set html")
}

func (c *PostgresCache) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := c.pool.Exec(ctx,
		`DELETE FROM html_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}
