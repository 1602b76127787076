package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
)

// loadEnvFile exports the variables of the file at path that are not set
// already and returns how many it exported. A missing file is not an error.
func loadEnvFile(ctx context.Context, path string) (int, error) {
	logger := ctxlog.FromContext(ctx).With("env_file", path)

	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No env file found.")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exported := 0
	for _, k := range keys {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, vars[k]); err != nil {
			return exported, fmt.Errorf("failed to export %s: %w", k, err)
		}
		exported++
	}
	logger.Debug("Env file loaded.", "variables", len(vars), "exported", exported)
	return exported, nil
}
