package htmlcache

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache using modernc.org/sqlite. It is the default
// backend: a single file, no server, good enough for one machine.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCache{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS html_cache (
	id         TEXT PRIMARY KEY,
	url_hash   TEXT NOT NULL,
	url        TEXT NOT NULL,
	html       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_html_cache_url_hash ON html_cache(url_hash);
CREATE INDEX IF NOT EXISTS idx_html_cache_expires_at ON html_cache(expires_at);
`

func (c *SQLiteCache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) GetHTML(ctx context.Context, url string) (string, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT html FROM html_cache
		 WHERE url_hash = ? AND expires_at > datetime('now')
		 ORDER BY fetched_at DESC LIMIT 1`,
		urlKey(url),
	)

	var html string
	err := row.Scan(&html)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: get html")
	}
	return html, nil
}

func (c *SQLiteCache) SetHTML(ctx context.Context, url string, html string, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO html_cache (id, url_hash, url, html, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, urlKey(url), url, html, now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: set html")
}

func (c *SQLiteCache) DeleteExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM html_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
