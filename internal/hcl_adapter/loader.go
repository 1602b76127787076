// Package hcl_adapter loads wavebuild settings from an HCL file.
package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/wavebuild/internal/config"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/state"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode every top-level attribute and block.
type fileRoot struct {
	PackageManager    *string         `hcl:"package_manager,optional"`
	ScopePrefix       *string         `hcl:"scope_prefix,optional"`
	EnvFile           *string         `hcl:"env_file,optional"`
	DebugEnv          *string         `hcl:"debug_env,optional"`
	Undeclared        *string         `hcl:"undeclared_dependencies,optional"`
	ManifestCacheSize *int            `hcl:"manifest_cache_size,optional"`
	Events            *eventsBlock    `hcl:"events,block"`
	Commands          []*commandBlock `hcl:"command,block"`
}

type eventsBlock struct {
	URL       string  `hcl:"url"`
	Namespace *string `hcl:"namespace,optional"`
}

type commandBlock struct {
	Name string         `hcl:"name,label"`
	Args hcl.Expression `hcl:"args,optional"`
}

// Load parses the file at path and resolves it against in. A missing file
// yields config.Defaults.
func (l *Loader) Load(ctx context.Context, path string, in config.Inputs) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	settings := config.Defaults()

	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No configuration file, using defaults.")
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	evalCtx := newEvalContext(in)

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalCtx, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if err := apply(settings, &root); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	for _, block := range root.Commands {
		if _, dup := settings.Commands[block.Name]; dup {
			return nil, fmt.Errorf("invalid config file %s: command %q is declared twice", path, block.Name)
		}
		extra, err := translateTemplate(ctx, block.Args, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("in command %q: %w", block.Name, err)
		}
		settings.Commands[block.Name] = &config.Command{Name: block.Name, Extra: extra}
	}

	logger.Debug("HCL loading complete.",
		"package_manager", settings.PackageManager,
		"undeclared", settings.Undeclared.String(),
		"commands", len(settings.Commands),
	)
	return settings, nil
}

func apply(s *config.Settings, root *fileRoot) error {
	if root.PackageManager != nil {
		if *root.PackageManager == "" {
			return errors.New("package_manager must not be empty")
		}
		s.PackageManager = *root.PackageManager
	}
	if root.ScopePrefix != nil {
		s.ScopePrefix = *root.ScopePrefix
	}
	if root.EnvFile != nil {
		s.EnvFile = *root.EnvFile
	}
	if root.DebugEnv != nil {
		s.DebugEnv = *root.DebugEnv
	}
	if root.Undeclared != nil {
		rule, err := state.ParseUndeclaredRule(*root.Undeclared)
		if err != nil {
			return err
		}
		s.Undeclared = rule
	}
	if root.ManifestCacheSize != nil {
		if *root.ManifestCacheSize <= 0 {
			return fmt.Errorf("manifest_cache_size must be positive, got %d", *root.ManifestCacheSize)
		}
		s.ManifestCacheSize = *root.ManifestCacheSize
	}
	if root.Events != nil {
		s.EventsURL = root.Events.URL
		if root.Events.Namespace != nil {
			s.EventsNamespace = *root.Events.Namespace
		}
	}
	return nil
}
