package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/wavebuild/internal/ctxlog"
	"github.com/specialistvlad/wavebuild/internal/executor"
	"github.com/specialistvlad/wavebuild/internal/report"
	"github.com/specialistvlad/wavebuild/internal/state"
	"github.com/specialistvlad/wavebuild/internal/template"
	"github.com/specialistvlad/wavebuild/internal/workspace"
)

// Config is fixed for the lifetime of a Scheduler.
type Config struct {
	// PackageManager is the workspace tool, e.g. "npm".
	PackageManager string
	// Undeclared decides how packages without a dependency declaration are
	// treated.
	Undeclared state.UndeclaredRule
	// DryRun logs each command instead of executing it.
	DryRun bool
	// Scripts answers which packages declare the requested script. When nil
	// the scripts recorded in the graph are used.
	Scripts workspace.ScriptSource
}

// Request names what to build.
type Request struct {
	// Script is the package script to run, e.g. "build".
	Script string
	// Extra is appended after the script name.
	Extra template.Template
}

// Scheduler runs build requests against workspace graphs.
type Scheduler struct {
	cfg      Config
	exec     executor.Executor
	reporter report.Reporter
	now      func() time.Time
}

// New creates a Scheduler. A nil reporter disables progress reporting.
func New(cfg Config, exec executor.Executor, reporter report.Reporter) *Scheduler {
	if cfg.PackageManager == "" {
		cfg.PackageManager = "npm"
	}
	if reporter == nil {
		reporter = report.Nop{}
	}
	return &Scheduler{cfg: cfg, exec: exec, reporter: reporter, now: time.Now}
}

// Command returns the command line that builds one package.
func (s *Scheduler) Command(id string, req Request) string {
	script := req.Extra.Prefix(req.Script + " ").String()
	return template.Render(
		[]string{s.cfg.PackageManager + " --workspace ", " run ", ""},
		template.Value(id), template.Value(script),
	)
}

// Run builds every in-scope package of g in dependency order. The returned
// report is always non-nil and reflects the progress made before any error.
func (s *Scheduler) Run(ctx context.Context, g *workspace.Graph, scope workspace.Scope, req Request) (*report.BuildReport, error) {
	logger := ctxlog.FromContext(ctx).With("script", req.Script)
	rep := &report.BuildReport{Script: req.Script, Started: s.now()}

	var err error
	if req.Script == "" {
		err = errors.New("no script to run")
	} else {
		st := state.New(g, scope, s.cfg.Undeclared)
		rep.Excluded = st.Excluded()
		for _, id := range rep.Excluded {
			logger.Warn("Package has no dependency declaration, excluded from the build.", "package", id)
		}
		logger.Debug("Execution state initialized.", "pending", len(st.Pending()), "scope", scope.Len())
		err = s.checkScripts(ctx, g, st.Pending(), req.Script)
		if err == nil {
			err = s.loop(ctx, g, st, req, rep)
		}
	}

	rep.Finished = s.now()
	if err != nil {
		rep.Error = err.Error()
	}
	s.reporter.RunFinished(ctx, rep, err)
	return rep, err
}

func (s *Scheduler) loop(ctx context.Context, g *workspace.Graph, st *state.ExecutionState, req Request, rep *report.BuildReport) error {
	logger := ctxlog.FromContext(ctx).With("script", req.Script)

	for !st.Done() {
		batch := st.Ready()
		if len(batch) == 0 {
			remaining := st.Pending()
			rep.Unresolved = remaining
			return &UnresolvableDependencyError{
				Remaining: remaining,
				Cycles:    workspace.Cycles(g, remaining),
			}
		}

		index := len(rep.Batches)
		rep.Batches = append(rep.Batches, batch)
		logger.Debug("Batch computed.", "batch", index, "packages", batch)
		s.reporter.BatchStarted(ctx, index, req.Script, batch)

		for _, id := range batch {
			built, err := s.build(ctx, g, id, req)
			if err != nil {
				rep.Failed = id
				s.reporter.PackageFinished(ctx, id, built, err)
				return err
			}
			if built {
				rep.Built = append(rep.Built, id)
			} else {
				rep.Skipped = append(rep.Skipped, id)
			}
			s.reporter.PackageFinished(ctx, id, built, nil)

			if err := st.MarkCompiled(id); err != nil {
				return fmt.Errorf("internal scheduling error: %w", err)
			}
		}
	}
	return nil
}

func (s *Scheduler) scripts(g *workspace.Graph) workspace.ScriptSource {
	if s.cfg.Scripts != nil {
		return s.cfg.Scripts
	}
	return g
}

// checkScripts reads the scripts of every package about to be scheduled, so
// an unreadable manifest fails the run before anything is built. It warns
// when none of them declares script, which usually means a misspelled name.
func (s *Scheduler) checkScripts(ctx context.Context, g *workspace.Graph, ids []string, script string) error {
	src := s.scripts(g)
	declaring := 0
	for _, id := range ids {
		ok, err := src.HasScript(ctx, id, script)
		if err != nil {
			return fmt.Errorf("failed to read scripts of %s: %w", id, err)
		}
		if ok {
			declaring++
		}
	}

	logger := ctxlog.FromContext(ctx).With("script", script)
	logger.Debug("Scripts checked.", "packages", len(ids), "declaring", declaring)
	if len(ids) > 0 && declaring == 0 {
		logger.Warn("No selected package declares the script, nothing will run.")
	}
	return nil
}

// build runs the script of one package. It reports false when the package
// has no such script.
func (s *Scheduler) build(ctx context.Context, g *workspace.Graph, id string, req Request) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("package", id)
	declared, err := s.scripts(g).HasScript(ctx, id, req.Script)
	if err != nil {
		return false, fmt.Errorf("failed to read scripts of %s: %w", id, err)
	}
	if !declared {
		return false, nil
	}

	cmd := s.Command(id, req)
	if s.cfg.DryRun {
		logger.Info("Dry run, command not executed.", "command", cmd)
		return true, nil
	}

	logger.Debug("Executing build command.", "command", cmd)
	if err := s.exec.Execute(ctx, cmd); err != nil {
		return true, &BuildFailureError{Package: id, Command: cmd, Err: err}
	}
	return true, nil
}

// Plan computes the batches a run would execute, assuming every build
// succeeds. Nothing is executed.
func Plan(g *workspace.Graph, scope workspace.Scope, rule state.UndeclaredRule) ([][]string, error) {
	st := state.New(g, scope, rule)
	var batches [][]string
	for !st.Done() {
		batch := st.Ready()
		if len(batch) == 0 {
			remaining := st.Pending()
			return batches, &UnresolvableDependencyError{Remaining: remaining, Cycles: workspace.Cycles(g, remaining)}
		}
		for _, id := range batch {
			if err := st.MarkCompiled(id); err != nil {
				return batches, fmt.Errorf("internal scheduling error: %w", err)
			}
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
