package explorer

import (
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// Event is emitted to the host while loading and running. It is one of
// LoadStarted, LoadFinished, RunStarted, TestEvent or RunFinished.
type Event interface {
	isEvent()
}

// LoadStarted is emitted before discovery begins.
type LoadStarted struct{}

// LoadFinished carries the loaded tree. Err is set when some or all of
// discovery failed; Suite then holds whatever loaded.
type LoadFinished struct {
	Suite *tree.Info
	Err   error
}

// RunStarted announces a run of the given node ids.
type RunStarted struct {
	RunID string
	Tests []string
}

// TestEvent reports the result of one test.
type TestEvent struct {
	RunID string
	testparser.ResultEvent
}

// RunFinished closes a run.
type RunFinished struct {
	RunID  string
	Counts testparser.TestCounts
	Err    error
}

func (LoadStarted) isEvent()  {}
func (LoadFinished) isEvent() {}
func (RunStarted) isEvent()   {}
func (TestEvent) isEvent()    {}
func (RunFinished) isEvent()  {}
