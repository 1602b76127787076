package app

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/wavebuild/internal/workspace"
)

// ScopeFlags returns the package manager flags that restrict a command to
// names, qualified with prefix. An empty names selects every workspace. A
// name of the form @{a|b} stands for a and b.
func ScopeFlags(packageManager string, names []string, prefix string) (string, error) {
	var ids []string
	for _, n := range names {
		for _, alt := range alternatives(n) {
			ids = append(ids, workspace.Qualify(prefix, alt))
		}
	}

	var flag, all, suffix string
	switch packageManager {
	case "npm":
		flag, all, suffix = `--workspace="%s"`, "--workspaces", " --if-present"
	case "pnpm":
		flag, all, suffix = `--filter="%s"`, "--filter=*", " --if-present"
	case "lerna":
		flag, all = "--filter %s", "--filter '*'"
	default:
		return "", fmt.Errorf("package manager %q has no workspace scope flags", packageManager)
	}

	if len(ids) == 0 {
		return all + suffix, nil
	}
	flags := make([]string, len(ids))
	for i, id := range ids {
		flags[i] = fmt.Sprintf(flag, id)
	}
	return strings.Join(flags, " ") + suffix, nil
}

// alternatives expands "@{a|b}" into its members; any other name stands for
// itself.
func alternatives(name string) []string {
	inner, ok := strings.CutPrefix(name, "@{")
	if !ok || !strings.HasSuffix(inner, "}") {
		return []string{name}
	}
	var names []string
	for _, n := range strings.Split(strings.TrimSuffix(inner, "}"), "|") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
