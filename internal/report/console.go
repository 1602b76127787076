package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console prints the human-facing progress lines: the batch about to run and,
// on a deadlock, the packages that could not be resolved.
type Console struct {
	out     io.Writer
	banner  lipgloss.Style
	failure lipgloss.Style
	success lipgloss.Style
}

// NewConsole creates a Console writing to out. Colors are only emitted when
// out is a terminal.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:     out,
		banner:  r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	}
}

// BatchStarted implements Reporter.
func (c *Console) BatchStarted(_ context.Context, _ int, script string, ids []string) {
	c.line(c.banner, fmt.Sprintf("-- Running %s for %s", script, strings.Join(ids, ",")))
}

// PackageFinished implements Reporter.
func (c *Console) PackageFinished(_ context.Context, id string, _ bool, err error) {
	if err != nil {
		c.line(c.failure, fmt.Sprintf("-- %s failed: %v", id, err))
	}
}

// RunFinished implements Reporter.
func (c *Console) RunFinished(_ context.Context, r *BuildReport, _ error) {
	switch {
	case len(r.Unresolved) > 0:
		c.line(c.failure, "-- Failed to resolve dependencies for "+strings.Join(r.Unresolved, ","))
	case r.Failed != "":
		c.line(c.failure, fmt.Sprintf("-- Stopped after %s failed, %d built", r.Failed, len(r.Built)))
	case r.Error != "":
		c.line(c.failure, "-- "+r.Error)
	default:
		c.line(c.success, fmt.Sprintf("-- Finished %s: %d built, %d without script", r.Script, len(r.Built), len(r.Skipped)))
	}
}

// Plan prints the batches of a dry plan, then the packages left unresolved
// when remaining is not empty.
func (c *Console) Plan(script string, batches [][]string, remaining []string) {
	for i, batch := range batches {
		c.line(c.banner, fmt.Sprintf("-- Batch %d: %s for %s", i+1, script, strings.Join(batch, ",")))
	}
	if len(remaining) > 0 {
		c.line(c.failure, "-- Failed to resolve dependencies for "+strings.Join(remaining, ","))
	}
}

func (c *Console) line(style lipgloss.Style, text string) {
	fmt.Fprintln(c.out, style.Render(text))
}
