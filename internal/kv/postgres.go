package kv

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
    path       TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres backs the keyed store with a single path→document table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, kvSchema)
	return err
}

// GenerateKey returns a fresh unique child key for the path.
func (p *Postgres) GenerateKey(string) string {
	return uuid.NewString()
}

// Set stores a document at a leaf path, overwriting any previous value.
func (p *Postgres) Set(path string, value []byte, done func(error)) {
	go func() {
		const query = `INSERT INTO kv_entries (path, value, updated_at) VALUES ($1, $2, now())
            ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
		_, err := p.pool.Exec(context.Background(), query, path, value)
		done(err)
	}()
}

// Once reads the leaf at path, falling back to an immediate-children query.
func (p *Postgres) Once(path string, onData func(Snapshot), onError func(error)) {
	go func() {
		ctx := context.Background()
		snap := Snapshot{Path: path}

		row := p.pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE path = $1`, path)
		var value []byte
		err := row.Scan(&value)
		if err == nil {
			snap.Value = value
			onData(snap)
			return
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			onError(err)
			return
		}

		rows, err := p.pool.Query(ctx, `SELECT path, value FROM kv_entries WHERE path LIKE $1 || '/%'`, path)
		if err != nil {
			onError(err)
			return
		}
		defer rows.Close()

		prefix := path + "/"
		for rows.Next() {
			var childPath string
			var childValue []byte
			if err := rows.Scan(&childPath, &childValue); err != nil {
				onError(err)
				return
			}
			rest := strings.TrimPrefix(childPath, prefix)
			if strings.Contains(rest, "/") {
				continue
			}
			if snap.Children == nil {
				snap.Children = make(map[string][]byte)
			}
			snap.Children[rest] = childValue
		}
		if err := rows.Err(); err != nil {
			onError(err)
			return
		}
		onData(snap)
	}()
}

// Delete removes the path and its subtree.
func (p *Postgres) Delete(path string, done func(error)) {
	go func() {
		const query = `DELETE FROM kv_entries WHERE path = $1 OR path LIKE $1 || '/%'`
		_, err := p.pool.Exec(context.Background(), query, path)
		done(err)
	}()
}
