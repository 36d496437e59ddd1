package testhelper

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// CompareOptions configures event comparison.
type CompareOptions struct {
	// MessageMode controls how failure messages are matched.
	// Values: "exact" (default), "prefix", "ignore".
	// "prefix" accepts an actual message that starts with the expected one,
	// which keeps fixtures stable when panic output carries paths.
	MessageMode string

	// EventOrder specifies event comparison order.
	// Values: "strict" (default), "unordered"
	EventOrder string
}

// DefaultOptions returns the default comparison options.
func DefaultOptions() CompareOptions {
	return CompareOptions{
		MessageMode: "exact",
		EventOrder:  "strict",
	}
}

// ValidateOptions checks that CompareOptions contains valid values.
func ValidateOptions(opts CompareOptions) error {
	switch opts.MessageMode {
	case "", "exact", "prefix", "ignore":
	default:
		return fmt.Errorf("invalid MessageMode %q: must be exact, prefix, or ignore", opts.MessageMode)
	}
	switch opts.EventOrder {
	case "", "strict", "unordered":
	default:
		return fmt.Errorf("invalid EventOrder %q: must be strict or unordered", opts.EventOrder)
	}
	return nil
}

// CompareEvents compares expected and actual events and returns a diff when
// they differ. Invalid options are reported as a mismatch.
func CompareEvents(expected, actual []Event, opts CompareOptions) (bool, string) {
	if err := ValidateOptions(opts); err != nil {
		return false, err.Error()
	}
	diff := cmp.Diff(expected, actual, cmpOptions(opts)...)
	return diff == "", diff
}

// CompareTests compares expected and actual qualified test names in order.
func CompareTests(expected, actual []string) (bool, string) {
	diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty())
	return diff == "", diff
}

func cmpOptions(opts CompareOptions) cmp.Options {
	out := cmp.Options{cmpopts.EquateEmpty()}
	if opts.EventOrder == "unordered" {
		out = append(out, cmpopts.SortSlices(func(a, b Event) bool { return a.ID < b.ID }))
	}
	switch opts.MessageMode {
	case "ignore":
		out = append(out, cmpopts.IgnoreFields(Event{}, "Message"))
	case "prefix":
		out = append(out, cmp.FilterPath(isMessage, cmp.Comparer(prefixEqual)))
	}
	return out
}

func isMessage(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && sf.Name() == "Message"
}

// prefixEqual is symmetric so cmp can use it as a Comparer.
func prefixEqual(a, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// FormatDiff returns a human-readable diff of two event lists, or an empty
// string when they match.
func FormatDiff(expected, actual []Event, opts CompareOptions) string {
	ok, diff := CompareEvents(expected, actual, opts)
	if ok {
		return ""
	}
	return fmt.Sprintf("events mismatch (-expected +actual):\n%s", diff)
}
