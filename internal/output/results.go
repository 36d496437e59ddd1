package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/cargotest/internal/testparser"
)

var titleCase = cases.Title(language.English)

// StatusLabel renders a status for people, e.g. "Passed".
func StatusLabel(s testparser.Status) string {
	return titleCase.String(string(s))
}

// TestResult prints one streamed result line.
func (w *Writer) TestResult(ev testparser.ResultEvent) {
	if w.quiet && (ev.Status == testparser.StatusPassed || ev.Status == testparser.StatusIgnored) {
		return
	}
	var mark string
	switch ev.Status {
	case testparser.StatusPassed:
		mark = w.paint(color.FgGreen).Sprint("✓")
	case testparser.StatusIgnored:
		mark = w.paint(color.FgYellow).Sprint("-")
	default:
		mark = w.paint(color.FgRed).Sprint("✗")
	}
	w.Println("%s %s %s", mark, ev.TestID, w.paint(color.Faint).Sprint(strings.ToLower(StatusLabel(ev.Status))))
}

// ResultsTable prints every result in a table with a totals footer.
func (w *Writer) ResultsTable(events []testparser.ResultEvent, counts *testparser.TestCounts) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Test", "Status", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.Trim},
	})

	for _, ev := range events {
		t.AppendRow(table.Row{ev.TestID, StatusLabel(ev.Status), firstLine(ev.Message)})
	}

	overall := "PASS"
	if !counts.OK() {
		overall = "FAIL"
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tests", counts.Total), overall, ""})

	switch {
	case !w.color:
		t.SetStyle(table.StyleLight)
	case !counts.OK():
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case counts.Ignored > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	w.Println("%s", t.Render())
}

// TestSummary prints the counts and the failed tests with their reasons.
func (w *Writer) TestSummary(counts *testparser.TestCounts) {
	w.SummaryHeader("Test Summary")

	w.SummaryPassed(StatusLabel(testparser.StatusPassed), fmt.Sprintf("%d", counts.Passed))
	if counts.Failed > 0 {
		w.SummaryFailed(StatusLabel(testparser.StatusFailed), fmt.Sprintf("%d", counts.Failed))
	}
	if counts.Errored > 0 {
		w.SummaryFailed(StatusLabel(testparser.StatusErrored), fmt.Sprintf("%d", counts.Errored))
	}
	if counts.Ignored > 0 {
		w.SummaryItem(StatusLabel(testparser.StatusIgnored), fmt.Sprintf("%d", counts.Ignored))
	}
	w.SummaryItem("Total", fmt.Sprintf("%d", counts.Total))

	if len(counts.FailedTests) > 0 {
		w.Println("")
		w.SummarySectionLabel("Failed Tests:")
		for _, ft := range counts.FailedTests {
			w.SummaryFailed("  "+ft.Name, firstLine(ft.Reason))
		}
	}

	if counts.OK() {
		w.FinalSuccess("All %d tests passed.", counts.Total)
	} else {
		w.FinalFailure("%d of %d tests failed.", counts.Failed+counts.Errored, counts.Total)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
