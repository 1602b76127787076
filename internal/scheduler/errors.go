package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvableDependency matches every *UnresolvableDependencyError.
	ErrUnresolvableDependency = errors.New("unresolvable dependency")
	// ErrBuildFailure matches every *BuildFailureError.
	ErrBuildFailure = errors.New("build failure")
)

// UnresolvableDependencyError is returned when packages remain pending but
// none of them can be built.
type UnresolvableDependencyError struct {
	// Remaining holds every pending package, in discovery order.
	Remaining []string
	// Cycles holds the dependency cycles found among Remaining. It is empty
	// when the deadlock comes from dependencies missing from the graph.
	Cycles [][]string
}

func (e *UnresolvableDependencyError) Error() string {
	msg := "failed to resolve dependencies for " + strings.Join(e.Remaining, ",")
	if len(e.Cycles) == 0 {
		return msg
	}
	cycles := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		loop := append(append([]string(nil), c...), c[0])
		cycles[i] = strings.Join(loop, " -> ")
	}
	return fmt.Sprintf("%s (cycles: %s)", msg, strings.Join(cycles, "; "))
}

// Is lets errors.Is match ErrUnresolvableDependency.
func (e *UnresolvableDependencyError) Is(target error) bool {
	return target == ErrUnresolvableDependency
}

// BuildFailureError is returned when a package's build command fails.
type BuildFailureError struct {
	Package string
	Command string
	Err     error
}

func (e *BuildFailureError) Error() string {
	return fmt.Sprintf("build of %s failed: %v", e.Package, e.Err)
}

// Unwrap returns the executor error.
func (e *BuildFailureError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrBuildFailure.
func (e *BuildFailureError) Is(target error) bool {
	return target == ErrBuildFailure
}
