package testparser

import (
	"regexp"
	"strings"
)

// Status is the outcome of one test in a run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusIgnored Status = "ignored"
	StatusErrored Status = "errored"
)

// ResultEvent is the parsed result of one test line.
type ResultEvent struct {
	TestID  string
	Status  Status
	Message string
}

var (
	runningHeaderRegex = regexp.MustCompile(`running \d* (test|tests)`)
	failuresStartRegex = regexp.MustCompile(`failures:\s*\n\n----`)
	failureHeaderRegex = regexp.MustCompile(`^(.+?)\s+stdout`)
)

const (
	noTestsHeader       = "running 0 tests"
	resultLineSeparator = " ... "
	resultLinePrefix    = "\ntest "
	failureBlockMarker  = "\n---- "
)

// ParsePretty parses a `cargo test -- --format pretty` transcript into result
// events whose ids are idPrefix + "::" + the test's qualified name. Output
// without a "running N tests" header (e.g. compiler errors only) yields no
// events.
func ParsePretty(idPrefix, output string) []ResultEvent {
	output = strings.ReplaceAll(output, "\r\n", "\n")

	header, rest, ok := runningHeader(output)
	if !ok || header == noTestsHeader {
		return nil
	}

	details := failureDetails(output)

	var events []ResultEvent
	for _, chunk := range resultChunks(rest) {
		event := parseResultChunk(idPrefix, chunk)
		if event.Status == StatusFailed {
			spliceFailureMessage(&event, details)
		}
		events = append(events, event)
	}
	return events
}

// runningHeader finds the first "running N tests" line and returns it with
// the text that follows it.
func runningHeader(output string) (header, rest string, ok bool) {
	loc := runningHeaderRegex.FindStringIndex(output)
	if loc == nil {
		return "", "", false
	}
	end := strings.IndexByte(output[loc[0]:], '\n')
	if end < 0 {
		return output[loc[0]:], "", true
	}
	end += loc[0]
	return output[loc[0]:end], output[end:], true
}

// resultChunks splits the per-test block (up to the first blank line) into
// one chunk per "test " line. A chunk may span several lines when the test
// printed inline output.
func resultChunks(rest string) []string {
	block, _, _ := strings.Cut(rest, "\n\n")
	parts := strings.Split(block, resultLinePrefix)
	// parts[0] is whatever preceded the first "test " line.
	return parts[1:]
}

// parseResultChunk classifies "name ... ok" style chunks.
func parseResultChunk(idPrefix, chunk string) ResultEvent {
	name, rhs, found := strings.Cut(chunk, resultLineSeparator)
	event := ResultEvent{TestID: idPrefix + PathSeparator + name}
	if !found || rhs == "" {
		event.Status = StatusErrored
		return event
	}

	status, inline, _ := strings.Cut(rhs, "\n")
	event.Status, event.Message = classifyStatus(strings.TrimSpace(status))
	if msg := strings.TrimSpace(inline); msg != "" {
		event.Message = msg
	}
	return event
}

// classifyStatus maps a status word to a Status, ignoring case. An ignore
// reason ("ignored, needs network") is returned as the message.
func classifyStatus(status string) (Status, string) {
	switch strings.ToLower(status) {
	case "ok":
		return StatusPassed, ""
	case "failed":
		return StatusFailed, ""
	case "ignored":
		return StatusIgnored, ""
	}
	const ignoredWithReason = "ignored, "
	if len(status) > len(ignoredWithReason) && strings.EqualFold(status[:len(ignoredWithReason)], ignoredWithReason) {
		return StatusIgnored, status[len(ignoredWithReason):]
	}
	return StatusErrored, ""
}

// failureDetail is the captured output of one failed test.
type failureDetail struct {
	name    string
	message string
}

// failureDetails extracts the captured output of failed tests from the
// first "failures:" section, in transcript order:
//
//	failures:
//
//	---- a::b::it_fails stdout ----
//	thread 'a::b::it_fails' panicked at src/lib.rs:10:5:
//	...
//
//	failures:
//	    a::b::it_fails
func failureDetails(output string) []failureDetail {
	section := failuresSection(output)
	if section == "" {
		return nil
	}

	var details []failureDetail
	for _, block := range strings.Split(section, failureBlockMarker) {
		block = strings.TrimPrefix(block, "---- ")
		headerLine, body, _ := strings.Cut(block, "\n")
		m := failureHeaderRegex.FindStringSubmatch(headerLine)
		if m == nil {
			continue
		}
		details = append(details, failureDetail{name: m[1], message: strings.TrimSpace(body)})
	}
	return details
}

// failuresSection returns the text from the first "---- " header of the
// failures section up to the next "failures:" list, the "test result:"
// summary, or the end of the transcript.
func failuresSection(output string) string {
	loc := failuresStartRegex.FindStringIndex(output)
	if loc == nil {
		return ""
	}
	section := output[loc[1]-len("----"):]

	end := len(section)
	if i := strings.Index(section, "\n\nfailures:"); i >= 0 && i < end {
		end = i
	}
	if i := strings.Index(section, "test result:"); i >= 0 && i < end {
		end = i
	}
	return section[:end]
}

// spliceFailureMessage replaces a failed event's message with the first
// detail block whose name is a "::"-suffix of the event id.
func spliceFailureMessage(event *ResultEvent, details []failureDetail) {
	for _, d := range details {
		if strings.HasSuffix(event.TestID, PathSeparator+d.name) {
			event.Message = d.message
			return
		}
	}
}
