// Package template assembles shell command lines from literal fragments and
// typed arguments. An argument without a value (absent, false or NaN) removes
// the whole flag it was attached to, so optional flags can be written inline:
//
//	template.Render([]string{"run -t", " -u", " task"}, template.Value(1), template.Absent)
//	// "run -t1 task"
//
// The flag name must be written directly against the placeholder, and any
// suffix that belongs to the same flag (a closing quote, ".0") directly after
// it. Rendering is pure and deterministic.
package template
