package driven

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CatalogFile persists the canonical catalog text in a single file.
// Writes go to a temp file that is renamed over the target, so readers never
// observe a partially written snapshot.
type CatalogFile struct {
	path string
}

// NewCatalogFile creates a catalog file store at path.
func NewCatalogFile(path string) (*CatalogFile, error) {
	if path == "" {
		return nil, errors.New("catalog path cannot be empty")
	}
	return &CatalogFile{path: filepath.Clean(path)}, nil
}

// Path returns the location of the snapshot.
func (f *CatalogFile) Path() string {
	return f.path
}

// Read returns the stored text. A missing file is reported as
// fs.ErrNotExist.
func (f *CatalogFile) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fs.ErrNotExist
		}
		return "", fmt.Errorf("catalog read: %w", err)
	}
	return string(data), nil
}

// Write atomically replaces the stored text.
func (f *CatalogFile) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog write: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return fmt.Errorf("catalog write: create temp: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(text)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog write: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog write: chmod: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("catalog write: rename: %w", err)
	}
	return nil
}
