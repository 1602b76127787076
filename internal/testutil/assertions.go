package testutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertBuiltBefore checks that dep appears before pkg in the build order.
func AssertBuiltBefore(t *testing.T, built []string, dep, pkg string) {
	t.Helper()

	i, j := slices.Index(built, dep), slices.Index(built, pkg)
	require.NotEqual(t, -1, i, "package %q was never built", dep)
	require.NotEqual(t, -1, j, "package %q was never built", pkg)
	require.Less(t, i, j, "expected %q to be built before %q, got order %v", dep, pkg, built)
}

// AssertBuiltOnce checks that no package appears twice in the build order.
func AssertBuiltOnce(t *testing.T, built []string) {
	t.Helper()

	seen := make(map[string]bool, len(built))
	for _, id := range built {
		require.False(t, seen[id], "package %q built more than once: %v", id, built)
		seen[id] = true
	}
}
