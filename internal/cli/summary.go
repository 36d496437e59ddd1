package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
)

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [file|-]",
		Short: "Summarize a saved cargo test transcript",
		Long: `Parse the output of "cargo test -- --format pretty" and print a summary,
highlighting failed tests with their failure output. Reads stdin when no
file or "-" is given.`,
		Example: `  cargo test 2>&1 | cargotest summary
  cargo test > test.log; cargotest summary test.log`,
		Args: args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, files []string) error {
			input := cmd.InOrStdin()
			if len(files) == 1 && files[0] != "-" {
				f, err := os.Open(files[0])
				if err != nil {
					return errors.Wrap(err, "unable to open transcript")
				}
				defer func() { _ = f.Close() }()
				input = f
			}

			data, err := io.ReadAll(input)
			if err != nil {
				return errors.Wrap(err, "unable to read transcript")
			}

			counts := summarize(string(data))
			if !counts.Parsed {
				a.out.Hint("hint: pipe the output of 'cargo test' into 'cargotest summary'")
				return errors.New("no test results found in input")
			}

			a.out.TestSummary(&counts)
			if !counts.OK() {
				return errTestsFailed
			}
			return nil
		},
	}
}

// summarize counts per-test results of a transcript. A transcript can hold
// several test binaries; each "running N tests" block is parsed on its own.
// When no result line is found the "test result:" lines are used instead.
func summarize(transcript string) testparser.TestCounts {
	var events []testparser.ResultEvent
	for _, block := range splitRuns(transcript) {
		for _, ev := range testparser.ParsePretty("", block) {
			ev.TestID = strings.TrimPrefix(ev.TestID, testparser.PathSeparator)
			events = append(events, ev)
		}
	}
	if len(events) > 0 {
		return testparser.CountEvents(events)
	}
	return testparser.ParseSummary(transcript)
}

// splitRuns splits a transcript before each line that starts with
// "running ".
func splitRuns(transcript string) []string {
	transcript = strings.ReplaceAll(transcript, "\r\n", "\n")
	var blocks []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(transcript, "\n") {
		if strings.HasPrefix(line, "running ") && b.Len() > 0 {
			blocks = append(blocks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	return append(blocks, b.String())
}
