package cli

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/AndreyAkinshin/cargotest/internal/explorer"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// jsonEvent is one line of `run --json` output.
type jsonEvent struct {
	Type    string     `json:"type"`
	RunID   string     `json:"runId,omitempty"`
	Test    string     `json:"test,omitempty"`
	Tests   []string   `json:"tests,omitempty"`
	State   string     `json:"state,omitempty"`
	Message string     `json:"message,omitempty"`
	Suite   *tree.Info `json:"suite,omitempty"`
	Passed  *int       `json:"passed,omitempty"`
	Failed  *int       `json:"failed,omitempty"`
	Ignored *int       `json:"ignored,omitempty"`
	Errored *int       `json:"errored,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// eventEncoder writes explorer events as JSON lines.
type eventEncoder struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

func newEventEncoder(w io.Writer) *eventEncoder {
	return &eventEncoder{enc: json.NewEncoder(w)}
}

// Encode writes ev. The first write error is kept and later writes skipped.
func (e *eventEncoder) Encode(ev explorer.Event) {
	line := toJSONEvent(ev)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return
	}
	e.err = e.enc.Encode(line)
}

// Err returns the first write error.
func (e *eventEncoder) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func toJSONEvent(ev explorer.Event) jsonEvent {
	switch ev := ev.(type) {
	case explorer.LoadStarted:
		return jsonEvent{Type: "loadStarted"}
	case explorer.LoadFinished:
		return jsonEvent{Type: "loadFinished", Suite: ev.Suite, Error: errString(ev.Err)}
	case explorer.RunStarted:
		return jsonEvent{Type: "runStarted", RunID: ev.RunID, Tests: ev.Tests}
	case explorer.TestEvent:
		return jsonEvent{
			Type:    "test",
			RunID:   ev.RunID,
			Test:    ev.TestID,
			State:   string(ev.Status),
			Message: ev.Message,
		}
	case explorer.RunFinished:
		c := ev.Counts
		return jsonEvent{
			Type:    "runFinished",
			RunID:   ev.RunID,
			Passed:  &c.Passed,
			Failed:  &c.Failed,
			Ignored: &c.Ignored,
			Errored: &c.Errored,
			Error:   errString(ev.Err),
		}
	}
	return jsonEvent{Type: "unknown"}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
