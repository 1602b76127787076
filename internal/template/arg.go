package template

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Arg is a single interpolated value of a command template.
type Arg interface {
	// text returns the spliced text and whether the argument has a value.
	text() (string, bool)
}

type absentArg struct{}

func (absentArg) text() (string, bool) { return "", false }

// Absent is the "no value" marker. It elides the flag it is attached to.
var Absent Arg = absentArg{}

type valueArg struct{ v any }

func (a valueArg) text() (string, bool) {
	switch v := a.v.(type) {
	case nil:
		return "", false
	case bool:
		if !v {
			return "", false
		}
	case float64:
		if math.IsNaN(v) {
			return "", false
		}
	case float32:
		if math.IsNaN(float64(v)) {
			return "", false
		}
	}
	return fmt.Sprint(a.v), true
}

// Value splices the textual representation of v. A nil v, false or a NaN
// float behave like Absent.
func Value(v any) Arg { return valueArg{v: v} }

// Bool is Value for booleans: false elides the flag, true splices "true".
func Bool(b bool) Arg { return valueArg{v: b} }

type seqArg []string

func (s seqArg) text() (string, bool) { return strings.Join(s, " "), true }

// Seq splices its items joined by a single space. An empty sequence splices
// nothing but does not elide the surrounding flag.
func Seq(items ...string) Arg { return seqArg(items) }

// From adapts a loose Go value into an Arg: Args pass through, nil becomes
// Absent, slices and arrays become sequences and everything else a Value.
func From(v any) Arg {
	switch t := v.(type) {
	case Arg:
		return t
	case nil:
		return Absent
	case []string:
		return Seq(t...)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return Seq(items...)
	}
	return Value(v)
}

// FromValues applies From to every value.
func FromValues(values ...any) []Arg {
	args := make([]Arg, len(values))
	for i, v := range values {
		args[i] = From(v)
	}
	return args
}
