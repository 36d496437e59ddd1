// Package testhelper loads golden cargo transcripts and compares parser
// output against their expected results.
//
// A fixture is a pair of files in <moduleRoot>/test/fixtures/transcripts/<suite>/:
// <name>.txt holds the raw stdout of a cargo invocation and <name>.json holds
// the expected parse:
//
//	{
//	  "kind": "pretty",
//	  "prefix": "calc::calc::lib",
//	  "events": [{"id": "calc::calc::lib::ops::adds", "status": "passed"}]
//	}
//
// Example usage in a Go test:
//
//	func TestTranscripts(t *testing.T) {
//	    root, err := testhelper.FindModuleRoot()
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    fixtures, err := testhelper.LoadSuite(root, "pretty")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    for _, f := range fixtures {
//	        t.Run(f.Name, func(t *testing.T) {
//	            actual := parse(f.Prefix, f.Transcript)
//	            if ok, diff := testhelper.CompareEvents(f.Events, actual, testhelper.DefaultOptions()); !ok {
//	                t.Errorf("mismatch for %s:\n%s", f.Name, diff)
//	            }
//	        })
//	    }
//	}
package testhelper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixture kinds.
const (
	KindPretty = "pretty"
	KindList   = "list"
)

// fixturesDir is relative to the module root.
var fixturesDir = filepath.Join("test", "fixtures", "transcripts")

// Event is one expected result line of a pretty transcript.
type Event struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Fixture is a golden transcript with its expected parse.
type Fixture struct {
	// Name is the fixture name (derived from filename).
	Name string `json:"-"`

	// Suite is the directory the fixture lives in.
	Suite string `json:"-"`

	// Transcript is the content of the sibling .txt file.
	Transcript string `json:"-"`

	// Kind is "pretty" for run transcripts or "list" for discovery output.
	Kind string `json:"kind"`

	// Prefix is the id prefix passed to the pretty parser.
	Prefix string `json:"prefix,omitempty"`

	// Events are the expected results of a pretty transcript.
	Events []Event `json:"events,omitempty"`

	// Tests are the expected qualified names of a list transcript.
	Tests []string `json:"tests,omitempty"`

	// MessageMode overrides the default message matching ("exact").
	MessageMode string `json:"message_mode,omitempty"`

	// Description provides optional documentation.
	Description string `json:"description,omitempty"`

	// Skip marks the fixture as skipped if true.
	Skip bool `json:"skip,omitempty"`
}

// LoadSuite loads all fixtures of a suite directory, sorted by name.
func LoadSuite(moduleRoot, suite string) ([]Fixture, error) {
	pattern := filepath.Join(moduleRoot, fixturesDir, suite, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var fixtures []Fixture
	for _, f := range files {
		fx, err := LoadFixture(f)
		if err != nil {
			return nil, err
		}
		fx.Suite = suite
		fixtures = append(fixtures, *fx)
	}

	return fixtures, nil
}

// LoadFixture loads a fixture from its .json file and the sibling .txt
// transcript.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	switch fx.Kind {
	case KindPretty, KindList:
	default:
		return nil, fmt.Errorf("%s: unknown fixture kind %q", path, fx.Kind)
	}

	base := strings.TrimSuffix(path, ".json")
	transcript, err := os.ReadFile(base + ".txt")
	if err != nil {
		return nil, fmt.Errorf("%s: missing transcript: %w", path, err)
	}

	fx.Name = filepath.Base(base)
	fx.Transcript = string(transcript)
	return &fx, nil
}

// Options returns the comparison options for this fixture.
func (f *Fixture) Options() CompareOptions {
	opts := DefaultOptions()
	if f.MessageMode != "" {
		opts.MessageMode = f.MessageMode
	}
	return opts
}

// LoadAllSuites loads fixtures from every suite directory.
func LoadAllSuites(moduleRoot string) (map[string][]Fixture, error) {
	names, err := ListSuites(moduleRoot)
	if err != nil {
		return nil, err
	}

	suites := make(map[string][]Fixture)
	for _, name := range names {
		fixtures, err := LoadSuite(moduleRoot, name)
		if err != nil {
			return nil, err
		}
		if len(fixtures) > 0 {
			suites[name] = fixtures
		}
	}

	return suites, nil
}

// FindModuleRoot walks up from the working directory to the directory
// holding go.mod.
func FindModuleRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindModuleRootFrom(cwd)
}

// FindModuleRootFrom finds the module root starting from a specific directory.
func FindModuleRootFrom(startDir string) (string, error) {
	dir := startDir

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", &ModuleNotFoundError{StartDir: startDir}
}

// ModuleNotFoundError indicates go.mod was not found.
type ModuleNotFoundError struct {
	StartDir string
}

func (e *ModuleNotFoundError) Error() string {
	return "go.mod not found (searched from " + e.StartDir + ")"
}

// ListSuites returns the names of all fixture suites.
func ListSuites(moduleRoot string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(moduleRoot, fixturesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var suites []string
	for _, entry := range entries {
		if entry.IsDir() {
			suites = append(suites, entry.Name())
		}
	}

	return suites, nil
}

// FixtureExists checks if a specific fixture exists.
func FixtureExists(moduleRoot, suite, name string) bool {
	_, err := os.Stat(filepath.Join(moduleRoot, fixturesDir, suite, name+".json"))
	return err == nil
}
