package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
)

// Saver stores one encoded document.
type Saver interface {
	Save(ctx context.Context, data []byte) error
	String() string
}

// FileStore keeps a graph in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) String() string { return f.path }

// Save writes data atomically (temp file + rename) so watchers and readers
// never see a partial document.
func (f *FileStore) Save(ctx context.Context, data []byte) error {
	defer metrics.Timer(metrics.FileSave)()

	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, f.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename temp file: %v", ErrPersistence, err)
	}
	return nil
}

// SaveGraph encodes and saves s.
func (f *FileStore) SaveGraph(ctx context.Context, s *graph.Store) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return f.Save(ctx, data)
}

// Load reads and decodes the file.
func (f *FileStore) Load() (*graph.Store, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, f.path, err)
	}
	return Unmarshal(data)
}

// Exists reports whether the file is present.
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}
