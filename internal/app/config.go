package app

import (
	"errors"
	"fmt"
)

// Mode selects what Run does with the selected packages.
type Mode string

const (
	// ModeRun builds the packages in dependency order.
	ModeRun Mode = "run"
	// ModePlan prints the batches a run would execute.
	ModePlan Mode = "plan"
	// ModeExec runs one command across the packages through the package
	// manager's own workspace flags, without ordering.
	ModeExec Mode = "exec"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode   Mode
	Script string
	// ExtraArgs follow the script in run mode and form the command in exec
	// mode.
	ExtraArgs []string

	ConfigPath string // wavebuild.hcl

	// Root is the workspace root. Empty means the nearest ancestor of the
	// working directory that looks like one.
	Root        string
	ListingFile string // pre-computed `npm ls` output
	Packages    []string

	// PackageManager overrides the configured package manager.
	PackageManager string
	// EventsURL overrides the configured events endpoint.
	EventsURL string

	LogFormat  string
	LogLevel   string
	Debug      bool
	DryRun     bool
	ReportPath string
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Mode {
	case ModeRun, ModePlan:
		if cfg.Script == "" {
			return nil, fmt.Errorf("%s needs a script name", cfg.Mode)
		}
	case ModeExec:
		if len(cfg.ExtraArgs) == 0 {
			return nil, errors.New("exec needs a command")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "wavebuild.hcl"
	}
	return &cfg, nil
}
