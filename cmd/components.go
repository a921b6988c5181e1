// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/config"
	"github.com/xkilldash9x/scalpel-locator/internal/dom/snapshot"
	"github.com/xkilldash9x/scalpel-locator/internal/feature"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
	"github.com/xkilldash9x/scalpel-locator/internal/registry"
	"github.com/xkilldash9x/scalpel-locator/internal/selector"
	"github.com/xkilldash9x/scalpel-locator/internal/service"
	"github.com/xkilldash9x/scalpel-locator/internal/store"
)

// newLocator wires a locator from the engine configuration. Each call gets
// its own engine, so locators may run on different goroutines.
func (a *app) newLocator(reg *registry.Registry) (*service.Locator, error) {
	engineCfg := a.cfg.Engine()
	catalog, err := i18n.New(engineCfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to build message catalog: %w", err)
	}
	matcher := selector.NewMatcher(attrs.NewMatcher(catalog))
	engine := feature.NewEngine(a.logger, matcher, engineCfg.Fuzzy)
	return service.NewLocator(a.logger, engine, reg, catalog), nil
}

// loadDocument reads a page from disk. Files ending in .html or .htm are
// parsed as fixture markup, anything else as an encoded snapshot.
func loadDocument(path string) (*snapshot.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return snapshot.LoadHTML(f, "file://"+path)
	default:
		return snapshot.Decode(f)
	}
}

// writeJSON encodes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := schemas.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// openStore opens the configured selector repository. The returned function
// releases whatever the backend holds.
func (a *app) openStore(ctx context.Context) (store.Repository, func(), error) {
	storeCfg := a.cfg.Store()
	switch storeCfg.Backend {
	case config.StoreBackendPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.Database().URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db, err := store.New(ctx, pool, a.logger)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to initialize database store: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return db, pool.Close, nil
	default:
		fs, err := store.NewFileStore(storeCfg.Dir, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("Using file selector store.", zap.String("dir", fs.Dir()))
		return fs, func() {}, nil
	}
}
