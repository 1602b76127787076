package report

import (
	"context"

	"github.com/specialistvlad/wavebuild/internal/ctxlog"
)

// Log writes progress as structured records to the context logger.
type Log struct{}

// BatchStarted implements Reporter.
func (Log) BatchStarted(ctx context.Context, index int, script string, ids []string) {
	ctxlog.FromContext(ctx).Info("Batch started.", "batch", index, "script", script, "packages", ids)
}

// PackageFinished implements Reporter.
func (Log) PackageFinished(ctx context.Context, id string, built bool, err error) {
	logger := ctxlog.FromContext(ctx).With("package", id)
	switch {
	case err != nil:
		logger.Error("Package build failed.", "error", err)
	case built:
		logger.Debug("Package built.")
	default:
		logger.Debug("Package declares no such script, nothing to build.")
	}
}

// RunFinished implements Reporter.
func (Log) RunFinished(ctx context.Context, r *BuildReport, err error) {
	logger := ctxlog.FromContext(ctx)
	if err != nil {
		logger.Error("Run failed.", "script", r.Script, "built", len(r.Built), "error", err)
		return
	}
	logger.Info("Run finished.", "script", r.Script, "batches", len(r.Batches), "built", len(r.Built), "skipped", len(r.Skipped), "duration", r.Duration())
}
