package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siftql/sift/internal/codec"
	"github.com/siftql/sift/internal/forest"
)

// ErrNotFound is returned when a named expression does not exist.
var ErrNotFound = errors.New("expression not found")

// SavedExpression is the metadata row of one saved expression.
type SavedExpression struct {
	Name        string
	Fingerprint string
	MaxID       int64
	NodeCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Save upserts the expression under name. The body, fingerprint, and
// derived columns are recomputed on every save.
func (s *Store) Save(ctx context.Context, name string, e forest.Expression) (SavedExpression, error) {
	if name == "" {
		return SavedExpression{}, fmt.Errorf("save: name must not be empty")
	}
	body, err := codec.Marshal(e)
	if err != nil {
		return SavedExpression{}, fmt.Errorf("save %q: %w", name, err)
	}
	fingerprint, err := codec.Fingerprint(e)
	if err != nil {
		return SavedExpression{}, fmt.Errorf("save %q: %w", name, err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO expressions (name, fingerprint, max_id, node_count, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			max_id      = excluded.max_id,
			node_count  = excluded.node_count,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, name, fingerprint, int64(e.MaxID()), e.Len(), string(body),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return SavedExpression{}, fmt.Errorf("save %q: %w", name, err)
	}
	return s.Stat(ctx, name)
}

// Load reads the named expression back from its saved body.
func (s *Store) Load(ctx context.Context, name string) (forest.Expression, SavedExpression, error) {
	var body string
	row := s.db.QueryRowContext(ctx, `SELECT body FROM expressions WHERE name = ?`, name)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return forest.Expression{}, SavedExpression{}, fmt.Errorf("load %q: %w", name, ErrNotFound)
		}
		return forest.Expression{}, SavedExpression{}, fmt.Errorf("load %q: %w", name, err)
	}
	e, err := codec.Unmarshal([]byte(body))
	if err != nil {
		return forest.Expression{}, SavedExpression{}, fmt.Errorf("load %q: %w", name, err)
	}
	meta, err := s.Stat(ctx, name)
	if err != nil {
		return forest.Expression{}, SavedExpression{}, err
	}
	return e, meta, nil
}

// Stat returns the metadata row of one saved expression.
func (s *Store) Stat(ctx context.Context, name string) (SavedExpression, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, fingerprint, max_id, node_count, created_at, updated_at
		FROM expressions WHERE name = ?
	`, name)
	meta, err := scanSaved(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedExpression{}, fmt.Errorf("stat %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedExpression{}, fmt.Errorf("stat %q: %w", name, err)
	}
	return meta, nil
}

// List returns all saved expressions ordered by name.
func (s *Store) List(ctx context.Context) ([]SavedExpression, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, fingerprint, max_id, node_count, created_at, updated_at
		FROM expressions ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []SavedExpression
	for rows.Next() {
		meta, err := scanSaved(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Delete removes a saved expression. Deleting a missing name is an
// ErrNotFound, not a silent no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expressions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

func scanSaved(scan func(dest ...any) error) (SavedExpression, error) {
	var meta SavedExpression
	var created, updated string
	if err := scan(&meta.Name, &meta.Fingerprint, &meta.MaxID, &meta.NodeCount, &created, &updated); err != nil {
		return SavedExpression{}, err
	}
	var err error
	if meta.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return SavedExpression{}, fmt.Errorf("parse created_at: %w", err)
	}
	if meta.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return SavedExpression{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return meta, nil
}
