package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/wavebuild/internal/app"
	"github.com/specialistvlad/wavebuild/internal/workspace"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

const usage = `
wavebuild - Builds the packages of a JavaScript workspace in dependency order.

Usage:
  wavebuild [options] run <script> [-- extra args]
  wavebuild [options] plan <script>
  wavebuild [options] exec -- <command...>

Commands:
  run    Run <script> in every selected package, dependencies first.
  plan   Print the batches run would execute, without executing anything.
  exec   Run a command in every selected package through the package manager.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// getenv supplies the PACKAGE allow-list and WAVEBUILD_DEBUG defaults.
func Parse(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("wavebuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "wavebuild.hcl", "Path to the configuration file, relative to the root.")
	rootFlag := flagSet.String("root", "", "Workspace root directory. Defaults to the nearest ancestor holding the config file or a lock file.")
	packagesFlag := flagSet.String("packages", getenv("PACKAGE"), "Comma-separated allow-list of packages. Defaults to $PACKAGE.")
	listingFlag := flagSet.String("listing", "", "Read the workspace listing from this file instead of running the package manager.")
	pmFlag := flagSet.String("package-manager", "", "Override the configured package manager.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	debugFlag := flagSet.Bool("debug", getenv("WAVEBUILD_DEBUG") != "", "Echo every command and export the debug variable to children.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Log commands instead of executing them.")
	reportFlag := flagSet.String("report", "", "Write a YAML build report to this path.")
	eventsFlag := flagSet.String("events-url", "", "Stream progress events to this socket.io endpoint.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	rest := flagSet.Args()
	if len(rest) == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	command, rest := rest[0], rest[1:]
	cfg := app.Config{Mode: app.Mode(command)}
	switch cfg.Mode {
	case app.ModeRun, app.ModePlan:
		if len(rest) == 0 || rest[0] == "--" {
			return nil, false, usageError("%s: missing script name", cfg.Mode)
		}
		cfg.Script, rest = rest[0], rest[1:]
		if len(rest) > 0 {
			if rest[0] != "--" {
				return nil, false, usageError("%s: unexpected argument %q, separate extra arguments with --", cfg.Mode, rest[0])
			}
			cfg.ExtraArgs = rest[1:]
		}
	case app.ModeExec:
		if len(rest) > 0 && rest[0] == "--" {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return nil, false, usageError("exec: missing command")
		}
		cfg.ExtraArgs = rest
	default:
		return nil, false, usageError("unknown command %q", command)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	cfg.ConfigPath = *configFlag
	cfg.Root = *rootFlag
	cfg.Packages = workspace.ParseAllowList(*packagesFlag)
	cfg.ListingFile = *listingFlag
	cfg.PackageManager = *pmFlag
	cfg.LogFormat = logFormat
	cfg.LogLevel = logLevel
	cfg.Debug = *debugFlag
	cfg.DryRun = *dryRunFlag
	cfg.ReportPath = *reportFlag
	cfg.EventsURL = *eventsFlag

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "mode", config.Mode, "script", config.Script)
	return config, false, nil
}
