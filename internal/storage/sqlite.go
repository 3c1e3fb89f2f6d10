package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/unanetx/internal/shared"
)

// DB is the subset of [sql.DB] used by [SQLiteStore].
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore keeps blobs in the blobs table created by the migrations.
type SQLiteStore struct {
	db DB
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: blob %s", shared.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query blob %s: %v", shared.ErrStorage, name, err)
	}
	return data, nil
}

func (s *SQLiteStore) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	query := `
		INSERT INTO blobs (name, data, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, size = excluded.size, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, name, data, len(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to write blob %s: %v", shared.ErrStorage, name, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, size, updated_at FROM blobs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list blobs: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var blobs []BlobInfo
	for rows.Next() {
		var b BlobInfo
		if err := rows.Scan(&b.Name, &b.Size, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan blob: %v", shared.ErrStorage, err)
		}
		blobs = append(blobs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	return blobs, nil
}
