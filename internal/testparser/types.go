// Package testparser parses cargo test transcripts: the `--list` discovery
// output, the pretty run transcript, and the "test result:" summary lines.
package testparser

// FailedTest holds information about a single failed test.
type FailedTest struct {
	Name   string // Test id or qualified name (e.g., "core::core::lib::a::it_fails")
	Reason string // Failure reason/error message
}

// TestCounts holds aggregated test result counts.
type TestCounts struct {
	Passed      int
	Failed      int
	Ignored     int
	Errored     int
	Total       int
	Parsed      bool         // true if counts were successfully extracted
	FailedTests []FailedTest // details of failed and errored tests
}

// Add adds another TestCounts to this one, aggregating the counts.
// The Parsed flag uses "sticky true" semantics: if any added TestCounts
// has Parsed=true, the aggregate will have Parsed=true.
func (tc *TestCounts) Add(other *TestCounts) {
	if other == nil {
		return
	}
	tc.Passed += other.Passed
	tc.Failed += other.Failed
	tc.Ignored += other.Ignored
	tc.Errored += other.Errored
	tc.Total += other.Total
	tc.FailedTests = append(tc.FailedTests, other.FailedTests...)
	if other.Parsed {
		tc.Parsed = true
	}
}

// OK reports whether nothing failed or errored.
func (tc *TestCounts) OK() bool {
	return tc.Failed == 0 && tc.Errored == 0
}

// CountEvents tallies parsed result events.
func CountEvents(events []ResultEvent) TestCounts {
	var counts TestCounts
	for _, e := range events {
		switch e.Status {
		case StatusPassed:
			counts.Passed++
		case StatusFailed:
			counts.Failed++
			counts.FailedTests = append(counts.FailedTests, FailedTest{Name: e.TestID, Reason: e.Message})
		case StatusIgnored:
			counts.Ignored++
		default:
			counts.Errored++
			counts.FailedTests = append(counts.FailedTests, FailedTest{Name: e.TestID, Reason: e.Message})
		}
	}
	counts.Total = len(events)
	counts.Parsed = len(events) > 0
	return counts
}
