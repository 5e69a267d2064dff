package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// PostgresCache persists cache entries in the cache_entries table so they
// survive restarts.
type PostgresCache struct {
	db *sql.DB
}

func NewPostgresCache(ctx context.Context, dsn string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	r := &PostgresCache{db: db}
	if err := r.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresCache) init(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`)
	return err
}

func (r *PostgresCache) Fetch(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var fetchedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM cache_entries WHERE key=$1`, key).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return payload, fetchedAt, true, nil
}

func (r *PostgresCache) Store(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO cache_entries (key,payload,fetched_at,updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (key) DO UPDATE SET payload=$2,fetched_at=$3,updated_at=now()`,
		key, payload, fetchedAt.UTC())
	return err
}

func (r *PostgresCache) Clear(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key=$1`, key)
	return err
}

func (r *PostgresCache) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresCache) Close() error {
	return r.db.Close()
}
