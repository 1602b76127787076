package config

import "context"

// Inputs are the invocation values a configuration file may refer to.
type Inputs struct {
	// Args are the arguments passed after the script name.
	Args []string
	// Packages is the requested allow-list.
	Packages []string
	// Getenv looks up environment variables. Nil means os.Getenv.
	Getenv func(string) string
}

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path and returns the resolved settings. A
	// missing file yields Defaults.
	Load(ctx context.Context, path string, in Inputs) (*Settings, error)
}
