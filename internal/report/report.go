package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BuildReport summarizes a single run.
type BuildReport struct {
	Script string `yaml:"script"`
	// Batches lists the waves in the order they ran.
	Batches [][]string `yaml:"batches"`
	// Built lists packages whose script ran successfully.
	Built []string `yaml:"built"`
	// Skipped lists packages that declare no script of that name.
	Skipped []string `yaml:"skipped,omitempty"`
	// Excluded lists in-scope packages that were never scheduled.
	Excluded []string `yaml:"excluded,omitempty"`
	// Failed names the package whose build aborted the run.
	Failed string `yaml:"failed,omitempty"`
	// Unresolved lists the packages left pending on a deadlock.
	Unresolved []string  `yaml:"unresolved,omitempty"`
	Error      string    `yaml:"error,omitempty"`
	Started    time.Time `yaml:"started"`
	Finished   time.Time `yaml:"finished"`
}

// Duration is the wall time of the run.
func (r *BuildReport) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Succeeded reports whether the run ended without a failure or deadlock.
func (r *BuildReport) Succeeded() bool {
	return r.Failed == "" && len(r.Unresolved) == 0 && r.Error == ""
}

// WriteYAML stores the report at path.
func WriteYAML(path string, r *BuildReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode build report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write build report: %w", err)
	}
	return nil
}

// ReadYAML loads a report written by WriteYAML.
func ReadYAML(path string) (*BuildReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build report: %w", err)
	}
	var r BuildReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode build report: %w", err)
	}
	return &r, nil
}

// Reporter receives progress notifications from the scheduler. Calls are
// made synchronously from the scheduling goroutine.
type Reporter interface {
	// BatchStarted is called before the packages of a wave are built.
	BatchStarted(ctx context.Context, index int, script string, ids []string)
	// PackageFinished is called after each package of a wave. built is
	// false for packages without the script.
	PackageFinished(ctx context.Context, id string, built bool, err error)
	// RunFinished is called once with the final report.
	RunFinished(ctx context.Context, r *BuildReport, err error)
}

// Nop ignores every notification.
type Nop struct{}

func (Nop) BatchStarted(context.Context, int, string, []string)  {}
func (Nop) PackageFinished(context.Context, string, bool, error) {}
func (Nop) RunFinished(context.Context, *BuildReport, error)     {}

// Multi forwards every notification to each reporter in order.
type Multi []Reporter

func (m Multi) BatchStarted(ctx context.Context, index int, script string, ids []string) {
	for _, r := range m {
		r.BatchStarted(ctx, index, script, ids)
	}
}

func (m Multi) PackageFinished(ctx context.Context, id string, built bool, err error) {
	for _, r := range m {
		r.PackageFinished(ctx, id, built, err)
	}
}

func (m Multi) RunFinished(ctx context.Context, rep *BuildReport, err error) {
	for _, r := range m {
		r.RunFinished(ctx, rep, err)
	}
}
