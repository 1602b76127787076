package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/executor"
	"github.com/specialistvlad/wavebuild/internal/template"
)

// Loader supplies the workspace graph snapshot for the current invocation.
type Loader interface {
	Load(ctx context.Context) (*Graph, error)
}

// ScriptSource answers whether a package declares a script. A Graph answers
// from its snapshot; NPMLoader reads installed manifests on demand.
type ScriptSource interface {
	HasScript(ctx context.Context, id, script string) (bool, error)
}

// StaticLoader hands out a graph that was built in memory.
type StaticLoader struct {
	Graph *Graph
}

// Load implements Loader.
func (l *StaticLoader) Load(context.Context) (*Graph, error) {
	if l.Graph == nil {
		return nil, errors.New("static loader has no graph")
	}
	return l.Graph, nil
}

// manifest is the part of package.json the loader reads.
type manifest struct {
	Scripts map[string]string `json:"scripts"`
}

// NPMLoaderOptions configures an NPMLoader.
type NPMLoaderOptions struct {
	// Root is the workspace root; installed manifests are looked up in
	// Root/node_modules.
	Root string
	// PackageManager is the binary invoked for the listing, e.g. "npm".
	PackageManager string
	// ListingFile, when set, is read instead of running the package manager.
	ListingFile string
	// CacheSize bounds the number of cached package manifests.
	CacheSize int
}

// NPMLoader builds the graph from the package manager's dependency listing.
type NPMLoader struct {
	opts      NPMLoaderOptions
	runner    executor.OutputRunner
	manifests *lru.Cache[string, manifest]
}

// NewNPMLoader creates a loader. runner may be nil when opts.ListingFile is set.
func NewNPMLoader(opts NPMLoaderOptions, runner executor.OutputRunner) (*NPMLoader, error) {
	if opts.PackageManager == "" {
		opts.PackageManager = "npm"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.ListingFile == "" && runner == nil {
		return nil, errors.New("npm loader needs a command runner or a listing file")
	}
	cache, err := lru.New[string, manifest](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest cache: %w", err)
	}
	return &NPMLoader{opts: opts, runner: runner, manifests: cache}, nil
}

// Load implements Loader.
func (l *NPMLoader) Load(ctx context.Context) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	raw, err := l.listing(ctx)
	if err != nil {
		return nil, err
	}
	pkgs, err := DecodeListing(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	logger.Debug("Workspace listing decoded.", "packages", len(pkgs))
	return NewGraph(pkgs...)
}

// HasScript implements ScriptSource. Load reads no manifests; each one is
// read on first use and kept in the cache, so the scheduler can ask about a
// package both before the run and when building it.
func (l *NPMLoader) HasScript(ctx context.Context, id, script string) (bool, error) {
	m, err := l.manifest(ctx, id)
	if err != nil {
		return false, err
	}
	_, ok := m.Scripts[script]
	return ok, nil
}

func (l *NPMLoader) listing(ctx context.Context) ([]byte, error) {
	if l.opts.ListingFile != "" {
		raw, err := os.ReadFile(l.opts.ListingFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read workspace listing: %w", err)
		}
		return raw, nil
	}

	cmd := template.Render([]string{l.opts.PackageManager + " ls --depth 1 --json"})
	raw, err := l.runner.Output(ctx, cmd)
	if err != nil {
		// npm ls exits non-zero for extraneous or invalid trees but still
		// prints the listing.
		var exitErr *executor.ExitError
		if !errors.As(err, &exitErr) || len(bytes.TrimSpace(raw)) == 0 {
			return nil, fmt.Errorf("failed to list workspace packages: %w", err)
		}
		ctxlog.FromContext(ctx).Warn("Workspace listing reported problems, continuing.", "error", err)
	}
	return raw, nil
}

// manifest reads and caches Root/node_modules/<id>/package.json. A missing
// manifest means the package declares no scripts.
func (l *NPMLoader) manifest(ctx context.Context, id string) (manifest, error) {
	path := filepath.Join(l.opts.Root, "node_modules", filepath.FromSlash(id), "package.json")
	if m, ok := l.manifests.Get(path); ok {
		return m, nil
	}

	var m manifest
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return m, fmt.Errorf("failed to read manifest of %s: %w", id, err)
	default:
		if err := json.Unmarshal(raw, &m); err != nil {
			return m, fmt.Errorf("failed to decode manifest of %s: %w", id, err)
		}
	}
	if evicted := l.manifests.Add(path, m); evicted {
		ctxlog.FromContext(ctx).Debug("Manifest cache full, evicted oldest entry.", "size", l.manifests.Len())
	}
	ctxlog.FromContext(ctx).Debug("Package manifest read.", "package", id, "scripts", len(m.Scripts))
	return m, nil
}
