package testparser

import (
	"regexp"
	"strconv"
)

// Static regex for the cargo summary line.
// Compiled once at package init for performance.
var cargoResultRegex = regexp.MustCompile(`test result: \w+\.\s*(\d+) passed;\s*(\d+) failed;\s*(\d+) ignored`)

// ParseSummary extracts counts from the summary lines of a run transcript:
//
//	test result: ok. 47 passed; 0 failed; 3 ignored; 0 measured; 0 filtered out; finished in 0.12s
//	test result: FAILED. 45 passed; 2 failed; 3 ignored; 0 measured; 0 filtered out; finished in 0.12s
//
// Counts of every summary line (one per test binary) are aggregated.
func ParseSummary(output string) TestCounts {
	counts := TestCounts{}

	matches := cargoResultRegex.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return counts
	}

	for _, match := range matches {
		if len(match) >= 4 {
			passed, _ := strconv.Atoi(match[1])
			failed, _ := strconv.Atoi(match[2])
			ignored, _ := strconv.Atoi(match[3])

			counts.Passed += passed
			counts.Failed += failed
			counts.Ignored += ignored
		}
	}

	counts.Total = counts.Passed + counts.Failed + counts.Ignored
	counts.Parsed = true

	return counts
}
