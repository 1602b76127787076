package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/wavebuild/internal/config"
	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/fsutil"
	"github.com/specialistvlad/wavebuild/internal/localexecutor"
	"github.com/specialistvlad/wavebuild/internal/report"
	"github.com/specialistvlad/wavebuild/internal/scheduler"
	"github.com/specialistvlad/wavebuild/internal/template"
	"github.com/specialistvlad/wavebuild/internal/workspace"
)

const eventsDialTimeout = 5 * time.Second

// rootMarkers are the files found at the root of a workspace.
var rootMarkers = []string{"package-lock.json", "pnpm-workspace.yaml", "lerna.json"}

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	if err := a.resolveRoot(ctx); err != nil {
		return err
	}

	settings, err := a.settings(ctx)
	if err != nil {
		return err
	}

	pm := settings.PackageManager
	if a.config.PackageManager != "" {
		pm = a.config.PackageManager
	}

	runner := a.runner
	if runner == nil {
		runner = localexecutor.New(localexecutor.Options{
			Dir:      a.config.Root,
			Debug:    a.config.Debug,
			DebugEnv: settings.DebugEnv,
		})
	}

	if a.config.Mode == ModeExec {
		return a.exec(ctx, runner, pm, settings)
	}

	g, scripts, err := a.loadGraph(ctx, runner, pm, settings)
	if err != nil {
		return err
	}

	scope, unmatched := workspace.SelectScope(g, a.config.Packages, settings.ScopePrefix)
	for _, name := range unmatched {
		logger.Warn("Package not found in workspace, ignored.", "package", name)
	}
	logger.Info("Workspace loaded.", "packages", g.Len(), "local", len(g.Local()), "selected", scope.Len())

	if a.config.Mode == ModePlan {
		return a.plan(ctx, g, scope, settings)
	}
	return a.build(ctx, g, scripts, scope, runner, pm, settings)
}

// resolveRoot picks the workspace root when none was given: the nearest
// ancestor of the working directory holding the configuration file or a
// workspace lock file, else the working directory itself.
func (a *App) resolveRoot(ctx context.Context) error {
	if a.config.Root != "" {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	markers := rootMarkers
	if !filepath.IsAbs(a.config.ConfigPath) {
		markers = append([]string{a.config.ConfigPath}, markers...)
	}
	root, err := fsutil.FindUp(cwd, markers...)
	switch {
	case errors.Is(err, fsutil.ErrNotFound):
		root = cwd
	case err != nil:
		return fmt.Errorf("failed to locate workspace root: %w", err)
	}
	a.config.Root = root
	ctxlog.FromContext(ctx).Debug("Workspace root resolved.", "root", root)
	return nil
}

// settings loads the configuration file, then the env file it names. When the
// env file exports anything the configuration is evaluated again so that
// getenv() sees those variables.
func (a *App) settings(ctx context.Context) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	path := a.path(a.config.ConfigPath)
	in := config.Inputs{Args: a.config.ExtraArgs, Packages: a.config.Packages}

	settings, err := a.loader.Load(ctx, path, in)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	exported, err := loadEnvFile(ctx, a.path(settings.EnvFile))
	if err != nil {
		return nil, err
	}
	if exported > 0 {
		logger.Debug("Env file changed the environment, reloading configuration.", "exported", exported)
		if settings, err = a.loader.Load(ctx, path, in); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	return settings, nil
}

// loadGraph returns the workspace snapshot and, when the loader can answer
// script lookups itself, the loader as the script source for builds.
func (a *App) loadGraph(ctx context.Context, runner Runner, pm string, settings *config.Settings) (*workspace.Graph, workspace.ScriptSource, error) {
	loader := a.workspace
	if loader == nil {
		npm, err := workspace.NewNPMLoader(workspace.NPMLoaderOptions{
			Root:           a.config.Root,
			PackageManager: pm,
			ListingFile:    a.config.ListingFile,
			CacheSize:      settings.ManifestCacheSize,
		}, runner)
		if err != nil {
			return nil, nil, err
		}
		loader = npm
	}

	g, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	scripts, _ := loader.(workspace.ScriptSource)
	return g, scripts, nil
}

func (a *App) plan(ctx context.Context, g *workspace.Graph, scope workspace.Scope, settings *config.Settings) error {
	batches, err := scheduler.Plan(g, scope, settings.Undeclared)

	var remaining []string
	var unresolved *scheduler.UnresolvableDependencyError
	if errors.As(err, &unresolved) {
		remaining = unresolved.Remaining
	}
	report.NewConsole(a.outW).Plan(a.config.Script, batches, remaining)

	ctxlog.FromContext(ctx).Debug("Plan computed.", "batches", len(batches))
	return err
}

func (a *App) build(ctx context.Context, g *workspace.Graph, scripts workspace.ScriptSource, scope workspace.Scope, runner Runner, pm string, settings *config.Settings) error {
	logger := ctxlog.FromContext(ctx)

	reporters := report.Multi{report.NewConsole(a.outW), report.Log{}}
	if events := a.eventsURL(settings); events != "" {
		sio, err := report.DialSocketIO(ctx, events, settings.EventsNamespace, eventsDialTimeout)
		if err != nil {
			logger.Warn("Events endpoint unavailable, continuing without it.", "error", err)
		} else {
			defer sio.Close()
			reporters = append(reporters, sio)
		}
	}

	sched := scheduler.New(scheduler.Config{
		PackageManager: pm,
		Undeclared:     settings.Undeclared,
		DryRun:         a.config.DryRun,
		Scripts:        scripts,
	}, runner, reporters)

	rep, runErr := sched.Run(ctx, g, scope, scheduler.Request{
		Script: a.config.Script,
		Extra:  a.extra(settings),
	})

	if a.config.ReportPath != "" {
		if err := report.WriteYAML(a.config.ReportPath, rep); err != nil {
			if runErr == nil {
				return err
			}
			logger.Error("Failed to write build report.", "error", err)
		} else {
			logger.Debug("Build report written.", "path", a.config.ReportPath)
		}
	}
	return runErr
}

// extra returns the arguments that follow the script name. A command block
// for the script decides alone what is forwarded, through arg() and argv();
// without one the extra CLI arguments are forwarded quoted.
func (a *App) extra(settings *config.Settings) template.Template {
	if _, ok := settings.Commands[a.config.Script]; ok {
		return settings.Extra(a.config.Script)
	}
	if len(a.config.ExtraArgs) == 0 {
		return template.Template{}
	}
	return template.Literal(template.ShellQuote(a.config.ExtraArgs...))
}

func (a *App) eventsURL(settings *config.Settings) string {
	if a.config.EventsURL != "" {
		return a.config.EventsURL
	}
	return settings.EventsURL
}

// exec runs one command in every selected workspace through the package
// manager's own scoping.
func (a *App) exec(ctx context.Context, runner Runner, pm string, settings *config.Settings) error {
	flags, err := ScopeFlags(pm, a.config.Packages, settings.ScopePrefix)
	if err != nil {
		return err
	}
	cmd := template.Render(
		[]string{pm + " ", " exec -- ", ""},
		template.Value(flags), template.Value(template.ShellQuote(a.config.ExtraArgs...)),
	)

	logger := ctxlog.FromContext(ctx).With("command", cmd)
	if a.config.DryRun {
		logger.Info("Dry run, command not executed.")
		return nil
	}
	logger.Debug("Executing scoped command.")
	if err := runner.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("scoped command failed: %w", err)
	}
	return nil
}
