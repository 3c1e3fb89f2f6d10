package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/unanetx/internal/shared"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func newBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), BoltFile))
	if err != nil {
		t.Fatalf("NewBoltStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlobStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(*testing.T) BlobStore{
		"FileStore":   func(t *testing.T) BlobStore { return newFileStore(t) },
		"SQLiteStore": func(t *testing.T) BlobStore { return newSQLiteStore(t) },
		"BoltStore":   func(t *testing.T) BlobStore { return newBoltStore(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("Put then Get", func(t *testing.T) {
				s := open(t)
				if err := s.Put(ctx, "Labor Category.csv", []byte("a,b\n1,2\n")); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
				data, err := s.Get(ctx, "Labor Category.csv")
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if string(data) != "a,b\n1,2\n" {
					t.Errorf("unexpected data: %q", data)
				}
			})

			t.Run("Put overwrites", func(t *testing.T) {
				s := open(t)
				s.Put(ctx, "planned_matrix.csv", []byte("old"))
				if err := s.Put(ctx, "planned_matrix.csv", []byte("new")); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
				data, _ := s.Get(ctx, "planned_matrix.csv")
				if string(data) != "new" {
					t.Errorf("expected new, got %q", data)
				}
			})

			t.Run("Missing blob", func(t *testing.T) {
				s := open(t)
				_, err := s.Get(ctx, "missing.csv")
				if !errors.Is(err, shared.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			})

			t.Run("Invalid names", func(t *testing.T) {
				s := open(t)
				for _, n := range []string{"", "../escape.csv", "/abs.csv", "a/../b.csv"} {
					if err := s.Put(ctx, n, []byte("x")); !errors.Is(err, shared.ErrInvalidArgument) {
						t.Errorf("Put(%q): expected ErrInvalidArgument, got %v", n, err)
					}
				}
			})

			t.Run("List", func(t *testing.T) {
				s := open(t)
				s.Put(ctx, "b.csv", []byte("bb"))
				s.Put(ctx, "a.csv", []byte("a"))

				blobs, err := s.List(ctx)
				if err != nil {
					t.Fatalf("List failed: %v", err)
				}
				if len(blobs) != 2 {
					t.Fatalf("expected 2 blobs, got %d", len(blobs))
				}
				if blobs[0].Name != "a.csv" || blobs[0].Size != 1 || blobs[1].Name != "b.csv" || blobs[1].Size != 2 {
					t.Errorf("unexpected listing: %+v", blobs)
				}
			})
		})
	}
}

func TestFileStore(t *testing.T) {
	t.Run("requires a directory", func(t *testing.T) {
		if _, err := NewFileStore(""); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("writes into the directory", func(t *testing.T) {
		s := newFileStore(t)
		if err := s.Put(context.Background(), "projects.csv", []byte("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(s.Dir(), "projects.csv")); err != nil {
			t.Errorf("expected file on disk: %v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		s, err := Open(shared.StorageConfig{Driver: "file", Dir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, ok := s.(*FileStore); !ok {
			t.Errorf("expected *FileStore, got %T", s)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(shared.StorageConfig{Driver: "bolt", Dir: dir}, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		bs, ok := s.(*BoltStore)
		if !ok {
			t.Fatalf("expected *BoltStore, got %T", s)
		}
		defer bs.Close()
		if _, err := os.Stat(filepath.Join(dir, BoltFile)); err != nil {
			t.Errorf("expected bolt file: %v", err)
		}
	})

	t.Run("bolt without directory", func(t *testing.T) {
		_, err := Open(shared.StorageConfig{Driver: "bolt"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("sqlite without database", func(t *testing.T) {
		_, err := Open(shared.StorageConfig{Driver: "sqlite"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(shared.StorageConfig{Driver: "azure"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
