// package storage keeps the CSV blobs the jobs read and write.
//
// [FileStore] maps blob names onto files in one directory, [SQLiteStore] keeps them in the blobs table
// and [BoltStore] keeps them in a bbolt file. All report a missing blob as [shared.ErrNotFound] and
// overwrite on Put.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/unanetx/internal/shared"
)

// BlobStore reads and writes named blobs.
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open returns the blob store selected by cfg.
//
// The sqlite driver needs db; the other drivers ignore it. The bolt driver's store holds a file lock;
// callers release it with [io.Closer] when the returned store implements it.
func Open(cfg shared.StorageConfig, db *sql.DB) (BlobStore, error) {
	switch cfg.Driver {
	case "file", "":
		return NewFileStore(cfg.Dir)
	case "bolt":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: storage.dir is required for the bolt driver", shared.ErrInvalidConfig)
		}
		return NewBoltStore(filepath.Join(cfg.Dir, BoltFile))
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite storage needs a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// validName rejects names that could escape the store: empty, absolute, or containing "..".
func validName(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: blob name %q", shared.ErrInvalidArgument, name)
	}
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if clean != name || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: blob name %q", shared.ErrInvalidArgument, name)
	}
	return nil
}
