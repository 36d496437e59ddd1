package testparser

import "strings"

// PathSeparator joins module path segments in cargo test names and in node ids.
const PathSeparator = "::"

// listEntrySuffix terminates every test line of `cargo test -- --list`.
// Benchmarks end with ": benchmark" and are not collected.
const listEntrySuffix = ": test"

// DiscoveryLine is one test reported by the list query.
type DiscoveryLine struct {
	// ModulePath holds the enclosing module segments, possibly none.
	ModulePath []string
	// Name is the test function name.
	Name string
}

// QualifiedName joins the module path and the test name with "::".
func (l DiscoveryLine) QualifiedName() string {
	if len(l.ModulePath) == 0 {
		return l.Name
	}
	return strings.Join(l.ModulePath, PathSeparator) + PathSeparator + l.Name
}

// HasNoTests reports whether the list summary states zero tests.
func HasNoTests(output string) bool {
	return strings.HasPrefix(output, "0 tests,") || strings.Contains(output, "\n0 tests,")
}

// ParseTestList parses the list transcript of one target into discovery
// lines, in transcript order. The output looks like:
//
//	a::b::test_one: test
//	a::test_two: test
//
//	2 tests, 0 benchmarks
func ParseTestList(output string) []DiscoveryLine {
	if HasNoTests(output) {
		return nil
	}

	var lines []DiscoveryLine
	for _, raw := range strings.Split(listBlock(output), "\n") {
		line, ok := parseListEntry(raw)
		if ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// listBlock returns the text before the first blank line, where the
// summary starts.
func listBlock(output string) string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	block, _, _ := strings.Cut(output, "\n\n")
	return block
}

// parseListEntry splits "a::b::name: test" into module path and name.
func parseListEntry(raw string) (DiscoveryLine, bool) {
	raw = strings.TrimSpace(raw)
	qualified, ok := strings.CutSuffix(raw, listEntrySuffix)
	if !ok || qualified == "" {
		return DiscoveryLine{}, false
	}

	segments := strings.Split(qualified, PathSeparator)
	last := len(segments) - 1
	line := DiscoveryLine{Name: segments[last]}
	if last > 0 {
		line.ModulePath = segments[:last:last]
	}
	return line, true
}
