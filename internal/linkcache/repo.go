package linkcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/daybook/internal/links"
)

// Verify *DB satisfies links.Cache at compile time.
var _ links.Cache = (*DB)(nil)

// Redirect is one cached page redirect.
type Redirect struct {
	PageID    string
	Target    string
	UpdatedAt time.Time
}

// Lookup returns the cached target for pageID.
func (db *DB) Lookup(ctx context.Context, pageID string) (string, bool, error) {
	var target string
	err := db.conn.QueryRowContext(ctx, `SELECT target FROM redirects WHERE page_id = ?`, pageID).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("linkcache: lookup: %w", err)
	}
	return target, true, nil
}

// Store inserts or replaces the redirect for pageID.
func (db *DB) Store(ctx context.Context, pageID, target string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO redirects (page_id, target, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			target     = excluded.target,
			updated_at = excluded.updated_at
	`, pageID, target, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("linkcache: store: %w", err)
	}
	return nil
}

// List returns every cached redirect ordered by page ID.
func (db *DB) List(ctx context.Context) ([]Redirect, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT page_id, target, updated_at FROM redirects ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("linkcache: list: %w", err)
	}
	defer rows.Close()

	var out []Redirect
	for rows.Next() {
		var r Redirect
		if err := rows.Scan(&r.PageID, &r.Target, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("linkcache: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Forget removes the redirect for pageID. Missing entries are not an error.
func (db *DB) Forget(ctx context.Context, pageID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM redirects WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("linkcache: forget: %w", err)
	}
	return nil
}
