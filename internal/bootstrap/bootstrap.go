// Package bootstrap wires the catalog, registry, engine, storage, and module
// discovery together from a project configuration.
package bootstrap

import (
	"fmt"

	"github.com/kingrea/flowbench/internal/composite"
	"github.com/kingrea/flowbench/internal/config"
	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/logging"
	"github.com/kingrea/flowbench/internal/processor"
	"github.com/kingrea/flowbench/internal/processors"
	"github.com/kingrea/flowbench/internal/session"
	"github.com/kingrea/flowbench/internal/storage"
	"github.com/kingrea/flowbench/plugins"
)

// App is a fully wired flowbench instance.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Catalog  *feature.Catalog
	Registry *processor.Registry
	Store    *session.Store
	Engine   *engine.Engine
	Storage  *storage.Manager
	Saver    *composite.Saver
	Modules  []plugins.Module
}

// Open initializes .flowbench in projectDir, loads its configuration, opens
// the log file, and wires everything.
func Open(projectDir string) (*App, error) {
	if err := config.InitDir(projectDir); err != nil {
		return nil, fmt.Errorf("bootstrap: init %s: %w", config.Dir, err)
	}
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogPath(), cfg.Project.Logging.Level, cfg.Project.Logging.Format)
	if err != nil {
		return nil, err
	}
	app, err := Wire(cfg, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return app, nil
}

// Wire builds an App from an already loaded configuration. A nil logger
// discards output.
func Wire(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	files, err := storage.New(cfg.UploadsDir(), cfg.StorageDir())
	if err != nil {
		return nil, err
	}
	catalog := feature.NewCatalog()
	catalog.SetWarnFunc(logger.Printf)
	registry := processor.NewRegistry()
	if err := processors.Register(catalog, registry, processors.Deps{Storage: files}); err != nil {
		return nil, err
	}
	store := session.NewStore()
	eng, err := engine.New(store, catalog, registry, engine.WithLogger(logger.Slog()))
	if err != nil {
		return nil, err
	}
	mods, err := plugins.Discover(plugins.Options{
		Dir:      cfg.ModulesDir(),
		Catalog:  catalog,
		Registry: registry,
		Invoker:  eng,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Printf("bootstrap: %d feature(s) available, %d module(s) discovered", catalog.Len(), len(mods))
	return &App{
		Config:   cfg,
		Logger:   logger,
		Catalog:  catalog,
		Registry: registry,
		Store:    store,
		Engine:   eng,
		Storage:  files,
		Saver:    &composite.Saver{Dir: cfg.UserModulesDir(), Catalog: catalog, Registry: registry, Invoker: eng},
		Modules:  mods,
	}, nil
}

// Close releases the log file.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.Logger.Close()
}
