package config

import (
	"github.com/specialistvlad/wavebuild/internal/state"
	"github.com/specialistvlad/wavebuild/internal/template"
)

// Settings is the resolved configuration of one invocation.
type Settings struct {
	// PackageManager is the workspace tool used to run scripts.
	PackageManager string
	// ScopePrefix qualifies short allow-list names, e.g. "@finos/".
	ScopePrefix string
	// EnvFile is loaded into the process environment before anything runs.
	EnvFile string
	// DebugEnv is set to 1 in child processes when debugging is enabled.
	DebugEnv string
	// Undeclared decides how packages without dependency declarations are
	// scheduled.
	Undeclared state.UndeclaredRule
	// ManifestCacheSize bounds the number of cached package manifests.
	ManifestCacheSize int

	EventsURL       string
	EventsNamespace string

	// Commands holds the per-script extra arguments, keyed by script name.
	Commands map[string]*Command
}

// Command is the configuration of one script.
type Command struct {
	Name  string
	Extra template.Template
}

// Defaults returns the settings used when no configuration file exists.
func Defaults() *Settings {
	return &Settings{
		PackageManager:    "npm",
		EnvFile:           ".wavebuildrc",
		DebugEnv:          "WAVEBUILD_DEBUG",
		Undeclared:        state.UndeclaredExclude,
		ManifestCacheSize: 256,
		Commands:          make(map[string]*Command),
	}
}

// Extra returns the configured extra arguments of script, or the zero
// Template when none are configured.
func (s *Settings) Extra(script string) template.Template {
	if cmd, ok := s.Commands[script]; ok {
		return cmd.Extra
	}
	return template.Template{}
}
