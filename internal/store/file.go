// File: internal/store/file.go
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const fileExt = ".json"

type fileRecord struct {
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Selector  jsoniter.RawMessage `json:"selector"`
}

// FileStore keeps one JSON file per selector in a directory.
type FileStore struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

var _ Repository = (*FileStore)(nil)

// NewFileStore opens (and creates) dir. A leading ~ is expanded.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand store dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &FileStore{dir: expanded, log: logger.Named("file_store"), now: time.Now}, nil
}

// Dir is the expanded store directory.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+fileExt)
}

func (f *FileStore) Save(_ context.Context, sel *SavedSelector) error {
	if err := ValidateName(sel.Name); err != nil {
		return err
	}
	if prev, err := f.read(sel.Name); err == nil && sel.CreatedAt.IsZero() {
		sel.CreatedAt = prev.CreatedAt
	}
	stamp(sel, f.now())

	data, err := schemas.Encode(sel.Selector)
	if err != nil {
		return fmt.Errorf("failed to encode selector: %w", err)
	}
	out, err := json.MarshalIndent(fileRecord{
		Name: sel.Name, CreatedAt: sel.CreatedAt, UpdatedAt: sel.UpdatedAt, Selector: data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode selector file: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+sel.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write selector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write selector file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(sel.Name)); err != nil {
		return fmt.Errorf("failed to replace selector file: %w", err)
	}
	f.log.Debug("Saved selector.", zap.String("name", sel.Name), zap.String("dir", f.dir))
	return nil
}

func (f *FileStore) read(name string) (*SavedSelector, error) {
	raw, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read selector %q: %w", name, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("stored selector %q: %w", name, err)
	}
	ds, err := decode(name, rec.Selector)
	if err != nil {
		return nil, err
	}
	return &SavedSelector{Name: name, Selector: ds, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}

func (f *FileStore) Load(_ context.Context, name string) (*SavedSelector, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return f.read(name)
}

func (f *FileStore) List(_ context.Context) ([]SavedSelector, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if e.IsDir() || !ok || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SavedSelector, 0, len(names))
	for _, name := range names {
		sel, err := f.read(name)
		if err != nil {
			f.log.Warn("Skipping undecodable selector.", zap.String("name", name), zap.Error(err))
			continue
		}
		out = append(out, *sel)
	}
	return out, nil
}

func (f *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
