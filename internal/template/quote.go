package template

import "strings"

// ShellQuote single-quotes every argument for a POSIX shell and joins them
// with spaces.
func ShellQuote(argv ...string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
