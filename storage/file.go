package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type FileDocument struct {
	FilePath string
}

func NewFileDocument(filePath string) *FileDocument {
	return &FileDocument{FilePath: filePath}
}

func (d *FileDocument) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(d.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", d.FilePath, ErrNotFound)
	}
	return b, err
}

// Save writes through a temp file in the same directory and renames it over
// the target so readers never see a partial document.
func (d *FileDocument) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(d.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(d.FilePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), d.FilePath)
}
