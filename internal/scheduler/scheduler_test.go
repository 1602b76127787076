package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/wavebuild/internal/executor"
	"github.com/specialistvlad/wavebuild/internal/report"
	"github.com/specialistvlad/wavebuild/internal/state"
	"github.com/specialistvlad/wavebuild/internal/template"
	"github.com/specialistvlad/wavebuild/internal/testutil"
	"github.com/specialistvlad/wavebuild/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	batches  [][]string
	finished []string
	runs     int
	lastErr  error
}

func (r *recordingReporter) BatchStarted(_ context.Context, _ int, _ string, ids []string) {
	r.batches = append(r.batches, ids)
}

func (r *recordingReporter) PackageFinished(_ context.Context, id string, _ bool, _ error) {
	r.finished = append(r.finished, id)
}

func (r *recordingReporter) RunFinished(_ context.Context, _ *report.BuildReport, err error) {
	r.runs++
	r.lastErr = err
}

func build() Request { return Request{Script: "build"} }

func TestRun_ChainBuildsOnePackagePerBatch(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("C", "B"),
		testutil.Local("B", "A"),
		testutil.Local("A"),
	)
	exec := &testutil.RecordingExecutor{}
	rec := &recordingReporter{}
	s := New(Config{}, exec, rec)

	rep, err := s.Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)

	want := [][]string{{"A"}, {"B"}, {"C"}}
	if diff := cmp.Diff(want, rep.Batches); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, rec.batches)
	assert.Equal(t, []string{
		"npm --workspace A run build",
		"npm --workspace B run build",
		"npm --workspace C run build",
	}, exec.Commands())
	assert.Equal(t, []string{"A", "B", "C"}, rep.Built)
	assert.Equal(t, 1, rec.runs)
	assert.True(t, rep.Succeeded())
}

func TestRun_IndependentPackagesShareABatch(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("A"),
		testutil.Local("B"),
		testutil.Local("C", "A", "B"),
	)
	rep, err := New(Config{}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, rep.Batches)
}

func TestRun_ExternalDependenciesAreSatisfied(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.WithExternal(testutil.Local("A"), "X"),
		testutil.External("X"),
	)
	rep, err := New(Config{}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}}, rep.Batches)
}

func TestRun_CycleIsUnresolvable(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("A", "B"),
		testutil.Local("B", "A"),
		testutil.Local("C"),
	)
	exec := &testutil.RecordingExecutor{}
	rec := &recordingReporter{}

	rep, err := New(Config{}, exec, rec).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvableDependency)

	var unresolved *UnresolvableDependencyError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []string{"A", "B"}, unresolved.Remaining)
	assert.Equal(t, [][]string{{"A", "B"}}, unresolved.Cycles)
	assert.Equal(t, "failed to resolve dependencies for A,B (cycles: A -> B -> A)", err.Error())

	// C still builds before the deadlock is detected.
	assert.Equal(t, []string{"npm --workspace C run build"}, exec.Commands())
	assert.Equal(t, []string{"A", "B"}, rep.Unresolved)
	assert.Equal(t, err.Error(), rep.Error)
	assert.Equal(t, err, rec.lastErr)
}

func TestRun_MissingDependencyIsUnresolvable(t *testing.T) {
	g := testutil.MustGraph(t, testutil.Local("A", "ghost"))

	_, err := New(Config{}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
	var unresolved *UnresolvableDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"A"}, unresolved.Remaining)
	assert.Empty(t, unresolved.Cycles)
	assert.Equal(t, "failed to resolve dependencies for A", err.Error())
}

func TestRun_BuildFailureStopsTheRun(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("A"),
		testutil.Local("B"),
		testutil.Local("C", "A"),
	)
	exec := &testutil.RecordingExecutor{FailOn: map[string]int{"--workspace A ": 2}}
	rec := &recordingReporter{}

	rep, err := New(Config{}, exec, rec).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildFailure)

	var failure *BuildFailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "A", failure.Package)
	assert.Equal(t, "npm --workspace A run build", failure.Command)

	var exit *executor.ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.Code)

	// B shares the batch with A but is never started.
	assert.Equal(t, []string{"npm --workspace A run build"}, exec.Commands())
	assert.Len(t, rec.batches, 1)
	assert.Equal(t, "A", rep.Failed)
	assert.Empty(t, rep.Built)
	assert.False(t, rep.Succeeded())
}

func TestRun_PackagesWithoutScriptAreSkipped(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.WithScripts(testutil.Local("A"), "test"),
		testutil.Local("B", "A"),
	)
	exec := &testutil.RecordingExecutor{}

	rep, err := New(Config{}, exec, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B"}}, rep.Batches)
	assert.Equal(t, []string{"A"}, rep.Skipped)
	assert.Equal(t, []string{"B"}, rep.Built)
	assert.Equal(t, []string{"npm --workspace B run build"}, exec.Commands())
}

// scriptTable answers script lookups from a fixed table and records them.
type scriptTable struct {
	scripts map[string]bool
	failOn  string
	lookups []string
}

func (s *scriptTable) HasScript(_ context.Context, id, _ string) (bool, error) {
	s.lookups = append(s.lookups, id)
	if id == s.failOn {
		return false, errors.New("unreadable manifest")
	}
	return s.scripts[id], nil
}

func TestRun_ScriptSource(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("A"),
		testutil.Local("B", "A"),
	)

	t.Run("decides which packages run", func(t *testing.T) {
		src := &scriptTable{scripts: map[string]bool{"B": true}}
		exec := &testutil.RecordingExecutor{}

		rep, err := New(Config{Scripts: src}, exec, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, rep.Skipped)
		assert.Equal(t, []string{"npm --workspace B run build"}, exec.Commands())
		// Once up front for every package, once more when each is built.
		assert.Equal(t, []string{"A", "B", "A", "B"}, src.lookups)
	})

	t.Run("unreadable scripts fail before any build", func(t *testing.T) {
		src := &scriptTable{scripts: map[string]bool{"A": true, "B": true}, failOn: "B"}
		exec := &testutil.RecordingExecutor{}

		rep, err := New(Config{Scripts: src}, exec, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		assert.ErrorContains(t, err, "failed to read scripts of B: unreadable manifest")
		assert.Empty(t, exec.Commands())
		assert.Empty(t, rep.Batches)
	})

	t.Run("no package declaring the script skips everything", func(t *testing.T) {
		src := &scriptTable{}
		exec := &testutil.RecordingExecutor{}

		rep, err := New(Config{Scripts: src}, exec, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, rep.Skipped)
		assert.Empty(t, exec.Commands())
	})
}

func TestRun_UndeclaredRule(t *testing.T) {
	newGraph := func() *workspace.Graph {
		return testutil.MustGraph(t,
			testutil.Undeclared(testutil.Local("A")),
			testutil.Local("B"),
			testutil.Local("C", "A"),
		)
	}

	t.Run("exclude blocks dependents", func(t *testing.T) {
		g := newGraph()
		rep, err := New(Config{}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		require.ErrorIs(t, err, ErrUnresolvableDependency)
		assert.Equal(t, []string{"A"}, rep.Excluded)
		assert.Equal(t, []string{"B"}, rep.Built)
		assert.Equal(t, []string{"C"}, rep.Unresolved)
	})

	t.Run("leaf builds first", func(t *testing.T) {
		g := newGraph()
		rep, err := New(Config{Undeclared: state.UndeclaredLeaf}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		require.NoError(t, err)
		assert.Empty(t, rep.Excluded)
		assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, rep.Batches)
	})
}

func TestRun_OutOfScopeDependenciesAreSatisfied(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("A"),
		testutil.Local("B", "A"),
	)
	scope, unmatched := workspace.SelectScope(g, []string{"B"}, "")
	require.Empty(t, unmatched)

	exec := &testutil.RecordingExecutor{}
	rep, err := New(Config{}, exec, nil).Run(context.Background(), g, scope, build())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"B"}}, rep.Batches)
	assert.Equal(t, []string{"npm --workspace B run build"}, exec.Commands())
}

func TestRun_DryRunExecutesNothing(t *testing.T) {
	g := testutil.MustGraph(t, testutil.Local("A"), testutil.Local("B", "A"))
	exec := &testutil.RecordingExecutor{}

	rep, err := New(Config{DryRun: true}, exec, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)
	assert.Empty(t, exec.Commands())
	assert.Equal(t, []string{"A", "B"}, rep.Built)
}

func TestRun_EmptyScriptIsRejected(t *testing.T) {
	g := testutil.MustGraph(t, testutil.Local("A"))
	rec := &recordingReporter{}

	rep, err := New(Config{}, &testutil.RecordingExecutor{}, rec).Run(context.Background(), g, testutil.AllLocal(g), Request{})
	require.EqualError(t, err, "no script to run")
	require.NotNil(t, rep)
	assert.Equal(t, 1, rec.runs)
}

func TestRun_ReportTimestamps(t *testing.T) {
	g := testutil.MustGraph(t, testutil.Local("A"))
	s := New(Config{}, &testutil.RecordingExecutor{}, nil)

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Second)
	}

	rep, err := s.Run(context.Background(), g, testutil.AllLocal(g), build())
	require.NoError(t, err)
	assert.Equal(t, start, rep.Started)
	assert.Equal(t, time.Second, rep.Duration())
}

func TestCommand(t *testing.T) {
	testCases := []struct {
		name     string
		pm       string
		req      Request
		expected string
	}{
		{"default manager", "", build(), "npm --workspace @scope/a run build"},
		{"custom manager", "pnpm", build(), "pnpm --workspace @scope/a run build"},
		{
			"extra arguments",
			"",
			Request{Script: "build", Extra: template.Literal("--ci")},
			"npm --workspace @scope/a run build --ci",
		},
		{
			"extra flag with value",
			"",
			Request{Script: "build", Extra: template.New([]string{"--mode=", " --ci"}, template.Value("prod"))},
			"npm --workspace @scope/a run build --mode=prod --ci",
		},
		{
			"extra flag without value is elided",
			"",
			Request{Script: "build", Extra: template.New([]string{"--mode=", " --ci"}, template.Absent)},
			"npm --workspace @scope/a run build --ci",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Config{PackageManager: tc.pm}, nil, nil)
			assert.Equal(t, tc.expected, s.Command("@scope/a", tc.req))
		})
	}
}

func TestPlan(t *testing.T) {
	g := testutil.MustGraph(t,
		testutil.Local("D", "B", "C"),
		testutil.Local("B", "A"),
		testutil.Local("C", "A"),
		testutil.Local("A"),
	)
	batches, err := Plan(g, testutil.AllLocal(g), state.UndeclaredExclude)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B", "C"}, {"D"}}, batches)

	cyclic := testutil.MustGraph(t, testutil.Local("A"), testutil.Local("B", "C"), testutil.Local("C", "B"))
	batches, err = Plan(cyclic, testutil.AllLocal(cyclic), state.UndeclaredExclude)
	require.ErrorIs(t, err, ErrUnresolvableDependency)
	assert.Equal(t, [][]string{{"A"}}, batches)
}

// TestRun_RandomAcyclicGraphs checks on generated graphs that every package
// is built exactly once, after all of its dependencies, and that no batch
// holds a package together with one of its dependencies.
func TestRun_RandomAcyclicGraphs(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))

	for round := 0; round < 50; round++ {
		n := 1 + rng.IntN(20)
		pkgs := make([]*workspace.Package, n)
		for i := range pkgs {
			var deps []string
			for j := 0; j < i; j++ {
				if rng.IntN(4) == 0 {
					deps = append(deps, fmt.Sprintf("p%d", j))
				}
			}
			pkgs[i] = testutil.Local(fmt.Sprintf("p%d", i), deps...)
		}
		rng.Shuffle(n, func(i, j int) { pkgs[i], pkgs[j] = pkgs[j], pkgs[i] })

		g := testutil.MustGraph(t, pkgs...)
		rep, err := New(Config{}, &testutil.RecordingExecutor{}, nil).Run(context.Background(), g, testutil.AllLocal(g), build())
		require.NoError(t, err, "round %d", round)
		require.Len(t, rep.Built, n, "round %d", round)
		testutil.AssertBuiltOnce(t, rep.Built)

		for _, p := range pkgs {
			for _, dep := range p.LocalDependencies() {
				testutil.AssertBuiltBefore(t, rep.Built, dep, p.ID)
			}
		}
		for _, batch := range rep.Batches {
			members := map[string]bool{}
			for _, id := range batch {
				members[id] = true
			}
			for _, id := range batch {
				pkg, _ := g.Get(id)
				for _, dep := range pkg.LocalDependencies() {
					assert.False(t, members[dep], "round %d: %s shares a batch with its dependency %s", round, id, dep)
				}
			}
		}
	}
}
