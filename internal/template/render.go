package template

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`[ \t\n]+`)

// Render interleaves segments and args as segments[0] args[0] segments[1] ...
// segments[n] and returns the normalized command line. It panics when
// len(segments) != len(args)+1.
//
// An argument without a value drops the last space-delimited token of the
// text assembled before it and the first space-delimited token of the next
// segment, then rejoins the remainders with a single space. Runs of
// whitespace collapse to one space and the result is trimmed. A template made
// of a single segment is returned untouched.
func Render(segments []string, args ...Arg) string {
	if len(segments) != len(args)+1 {
		panic(fmt.Sprintf("template: %d segments cannot hold %d arguments", len(segments), len(args)))
	}
	if len(segments) == 1 {
		return segments[0]
	}

	terms := make([]string, 0, 3*len(args))
	for i, arg := range args {
		start := segments[i]
		if len(terms) > 0 {
			start = terms[len(terms)-1]
			terms = terms[:len(terms)-1]
		}
		next := segments[i+1]

		text, ok := arg.text()
		if !ok {
			terms = append(terms, cutLast(start), " ", cutFirst(next))
			continue
		}
		terms = append(terms, start, text, next)
	}

	joined := whitespaceRun.ReplaceAllString(strings.Join(terms, ""), " ")
	return strings.TrimSpace(joined)
}

// cutLast removes the last space-delimited token of s.
func cutLast(s string) string {
	parts := strings.Split(s, " ")
	return strings.Join(parts[:len(parts)-1], " ")
}

// cutFirst removes the first space-delimited token of s.
func cutFirst(s string) string {
	parts := strings.Split(s, " ")
	return strings.Join(parts[1:], " ")
}

// Template is a command line kept in its unrendered form so that it can be
// extended before rendering.
type Template struct {
	Segments []string
	Args     []Arg
}

// New builds a Template, panicking on a shape mismatch like Render.
func New(segments []string, args ...Arg) Template {
	if len(segments) != len(args)+1 {
		panic(fmt.Sprintf("template: %d segments cannot hold %d arguments", len(segments), len(args)))
	}
	return Template{Segments: segments, Args: args}
}

// Literal is a template without arguments.
func Literal(s string) Template {
	return Template{Segments: []string{s}}
}

// IsZero reports whether the template holds nothing to render.
func (t Template) IsZero() bool {
	return len(t.Segments) == 0
}

// String renders the template. The zero Template renders as "".
func (t Template) String() string {
	if t.IsZero() {
		return ""
	}
	return Render(t.Segments, t.Args...)
}

// Prefix returns a copy of t with s written in front of its first segment.
func (t Template) Prefix(s string) Template {
	if t.IsZero() {
		return Literal(s)
	}
	segments := append([]string{s + t.Segments[0]}, t.Segments[1:]...)
	return Template{Segments: segments, Args: append([]Arg(nil), t.Args...)}
}

// Suffix returns a copy of t with s written after its last segment.
func (t Template) Suffix(s string) Template {
	if t.IsZero() {
		return Literal(s)
	}
	segments := append([]string(nil), t.Segments...)
	segments[len(segments)-1] += s
	return Template{Segments: segments, Args: append([]Arg(nil), t.Args...)}
}
