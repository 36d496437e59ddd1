package output

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/AndreyAkinshin/cargotest/internal/testparser"
)

// Progress shows a progress bar on stderr while tests run.
type Progress struct {
	w      *Writer
	bar    *progressbar.ProgressBar
	passed int
	failed int
}

// NewProgress creates a progress bar for total tests.
func (w *Writer) NewProgress(total int) *Progress {
	p := &Progress{w: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(p.describe()),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        w.paint(color.FgCyan).Sprint("█"),
			SaucerHead:    w.paint(color.FgCyan).Sprint("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(w.color),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w.err),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w.err, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return p
}

func (p *Progress) describe() string {
	return p.w.paint(color.FgCyan).Sprint("Running tests: ") +
		p.w.paint(color.FgGreen).Sprintf("[passed: %d", p.passed) +
		" | " +
		p.w.paint(color.FgRed).Sprintf("failed: %d]", p.failed)
}

// Observe advances the bar by one result.
func (p *Progress) Observe(ev testparser.ResultEvent) {
	switch ev.Status {
	case testparser.StatusPassed, testparser.StatusIgnored:
		p.passed++
	default:
		p.failed++
	}
	p.bar.Describe(p.describe())
	_ = p.bar.Add(1)
}

// Finish completes the progress bar.
func (p *Progress) Finish() {
	_ = p.bar.Finish()
}
