package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/flowbench/internal/composite"
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processor"
)

// UserDir is the modules subdirectory holding saved composite modules.
const UserDir = "user_defined"

// Logger is the Printf-style logger used to report skipped modules.
type Logger interface {
	Printf(format string, args ...any)
}

// Options configures Discover.
type Options struct {
	Dir      string
	Catalog  *feature.Catalog
	Registry *processor.Registry
	// Invoker runs composite modules; without it graph.json modules are skipped.
	Invoker composite.Invoker
	Logger  Logger
}

// Kind says which processor serves a discovered module.
type Kind string

const (
	KindScript    Kind = "script"
	KindComposite Kind = "composite"
	KindBuiltin   Kind = "builtin"
	KindNone      Kind = "none"
)

// Module is a module found by Discover.
type Module struct {
	ID   string
	Dir  string
	Kind Kind
}

// Discover scans <Dir>/<id>/ and <Dir>/user_defined/<id>/ for module
// metadata, registers each descriptor in the catalog, and registers a
// processor for modules that carry a source.go script or a graph.json.
// Modules without either rely on a builtin processor with the same id.
// Broken modules are logged and skipped; a missing Dir means no modules.
func Discover(opts Options) ([]Module, error) {
	if opts.Catalog == nil || opts.Registry == nil {
		return nil, fmt.Errorf("plugin: catalog and registry are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	root := strings.TrimSpace(opts.Dir)
	if root == "" {
		return nil, nil
	}
	core, err := moduleDirs(root, "")
	if err != nil {
		return nil, err
	}
	user, err := moduleDirs(filepath.Join(root, UserDir), UserDir+".")
	if err != nil {
		return nil, err
	}
	var found []Module
	for _, candidate := range append(core, user...) {
		mod, err := register(opts, candidate.dir, candidate.id)
		if err != nil {
			logger.Printf("plugin: skipping %s: %v", candidate.dir, err)
			continue
		}
		if mod.Kind == KindNone {
			logger.Printf("plugin: %s has no processor; runs will fail until one is registered", mod.ID)
		}
		found = append(found, mod)
	}
	return found, nil
}

type candidate struct {
	id  string
	dir string
}

func moduleDirs(root, prefix string) ([]candidate, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", root, err)
	}
	var out []candidate
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		if prefix == "" && name == UserDir {
			continue
		}
		out = append(out, candidate{id: prefix + name, dir: filepath.Join(root, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

func register(opts Options, dir, defaultID string) (Module, error) {
	metaPath := findMetadata(dir)
	if metaPath == "" {
		return Module{}, fmt.Errorf("no meta.yaml, meta.yml or meta.json")
	}
	file, err := LoadMetadataFile(metaPath, defaultID)
	if err != nil {
		return Module{}, err
	}
	desc := file.Metadata.Descriptor()
	mod := Module{ID: desc.ID, Dir: dir, Kind: KindNone}

	var factory processor.Factory
	scriptPath := filepath.Join(dir, ScriptFile)
	graphPath := filepath.Join(dir, composite.GraphFile)
	switch {
	case fileExists(scriptPath):
		script, err := LoadScript(scriptPath)
		if err != nil {
			return Module{}, err
		}
		factory = processor.Static(script)
		mod.Kind = KindScript
	case fileExists(graphPath):
		if opts.Invoker == nil {
			return Module{}, fmt.Errorf("composite module needs a workflow invoker")
		}
		g, err := graph.LoadFile(graphPath)
		if err != nil {
			return Module{}, err
		}
		if _, err := graph.Compile(g); err != nil {
			return Module{}, err
		}
		factory = composite.Factory(g, opts.Invoker)
		mod.Kind = KindComposite
		if desc.Processor == "" {
			desc.Processor = composite.ProcessorClass
		}
	case opts.Registry.Has(desc.ID):
		mod.Kind = KindBuiltin
	}

	if err := opts.Catalog.Register(desc); err != nil {
		return Module{}, err
	}
	if factory != nil {
		if err := opts.Registry.Replace(desc.ID, factory); err != nil {
			return Module{}, err
		}
	}
	return mod, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
