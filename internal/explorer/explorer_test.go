package explorer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/testing/mocks"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

const (
	metadataArgs  = "metadata --no-deps --format-version 1"
	coreLibList   = "test -p core --lib -- --list"
	coreSmokeList = "test -p core --test smoke -- --list"
	toolBinList   = "test -p tool --bin tool -- --list"
)

// fixture is a two-package workspace on disk plus a scripted cargo.
type fixture struct {
	dir    string
	runner *mocks.Runner
	events []Event
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("core/src/lib.rs", "mod parse;\n#[test]\nfn it_works() {}\n")
	write("core/src/parse.rs", "#[cfg(test)]\nmod tests {\n    #[test]\n    fn it_parses() {}\n}\n")
	write("core/tests/smoke.rs", "#[test]\nfn smoke_runs() {}\n")

	md := cargo.Metadata{
		WorkspaceRoot: dir,
		Packages: []*cargo.Package{
			{
				Name:         "core",
				ManifestPath: filepath.Join(dir, "core", "Cargo.toml"),
				Targets: []cargo.Target{
					{Name: "core", Kind: []string{"lib"}},
					{Name: "demo", Kind: []string{"example"}},
					{Name: "smoke", Kind: []string{"test"}},
				},
			},
			nil,
			{
				Name:         "tool",
				ManifestPath: filepath.Join(dir, "tool", "Cargo.toml"),
				Targets:      []cargo.Target{{Name: "tool", Kind: []string{"bin"}}},
			},
		},
	}
	data, err := json.Marshal(md)
	if err != nil {
		t.Fatal(err)
	}

	r := mocks.NewRunner().
		On(metadataArgs, string(data)).
		On(coreLibList, "parse::tests::it_parses: test\nit_works: test\n\n2 tests, 0 benchmarks\n").
		On(coreSmokeList, "smoke_runs: test\n\n1 test, 0 benchmarks\n").
		On(toolBinList, "0 tests, 0 benchmarks\n")
	return &fixture{dir: dir, runner: r}
}

func (f *fixture) explorer(mutate ...func(*Options)) *Explorer {
	opts := Options{
		WorkspaceDir:         f.dir,
		LoadUnitTests:        true,
		LoadIntegrationTests: true,
		Parallel:             4,
		OnEvent: func(ev Event) {
			f.mu.Lock()
			f.events = append(f.events, ev)
			f.mu.Unlock()
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	client := cargo.NewClient(f.runner, cargo.ClientOptions{WorkspaceDir: f.dir})
	return New(client, opts)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()

	snap, err := e.Load(context.Background())
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Load() error = %v, want invalid input for the nil package", err)
	}
	if e.Snapshot() != snap {
		t.Error("Load() did not publish its snapshot")
	}

	if diff := cmp.Diff([]string{"core"}, snap.Root.ChildIDs); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
	if snap.Root.Label != filepath.Base(f.dir) {
		t.Errorf("root label = %q", snap.Root.Label)
	}

	wantCases := []string{
		"core::core::lib::parse::tests::it_parses",
		"core::core::lib::it_works",
		"core::smoke::test::smoke_runs",
	}
	for _, id := range wantCases {
		if _, ok := snap.Case(id); !ok {
			t.Errorf("missing case %q", id)
		}
	}
	if snap.CaseCount() != len(wantCases) {
		t.Errorf("CaseCount() = %d, want %d", snap.CaseCount(), len(wantCases))
	}

	calls := f.runner.Calls()
	for _, c := range calls[1:] {
		if c.Package == "core" && c.Dir != filepath.Join(f.dir, "core") {
			t.Errorf("list for core ran in %q", c.Dir)
		}
	}

	if len(f.events) != 2 {
		t.Fatalf("events = %#v", f.events)
	}
	if _, ok := f.events[0].(LoadStarted); !ok {
		t.Errorf("first event = %T", f.events[0])
	}
	finished, ok := f.events[1].(LoadFinished)
	if !ok || finished.Suite == nil || finished.Suite.ID != tree.WorkspaceRootID || finished.Err == nil {
		t.Errorf("LoadFinished = %+v", f.events[1])
	}
}

func TestLoad_ResolvesLocations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()
	_, _ = e.Load(context.Background())

	loc, err := e.Locate("core::core::lib::parse::tests::it_parses")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	want := Location{File: filepath.ToSlash(filepath.Join(f.dir, "core", "src", "parse.rs")), Line: 4}
	if diff := cmp.Diff(want, loc); diff != "" {
		t.Errorf("Locate() mismatch (-want +got):\n%s", diff)
	}

	loc, err = e.Locate("core::smoke::test::smoke_runs")
	if err != nil || loc.Line != 2 {
		t.Errorf("Locate(smoke) = %+v, %v", loc, err)
	}
}

func TestLocate_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()
	_, _ = e.Load(context.Background())

	if _, err := e.Locate("core::core::lib::nope"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Locate(unknown) error = %v", err)
	}
	if _, err := e.Locate("core::core::lib::parse"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Locate(suite) error = %v", err)
	}

	c, _ := e.Snapshot().Case("core::core::lib::it_works")
	c.Line = 0
	if loc, err := e.Locate(c.ID); err != nil || loc.Line != 1 {
		t.Errorf("Locate() without line = %+v, %v, want line 1", loc, err)
	}
}

func TestLoad_TargetFilters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer(func(o *Options) { o.LoadUnitTests = false })

	snap, _ := e.Load(context.Background())
	if snap.CaseCount() != 1 {
		t.Errorf("CaseCount() = %d, want only the integration test", snap.CaseCount())
	}
	if f.runner.CalledWith(coreLibList) || f.runner.CalledWith(toolBinList) {
		t.Error("unit targets should not be listed")
	}
}

func TestLoad_MetadataFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()
	before := e.Snapshot()

	f.runner.OnError(metadataArgs, errors.Process("", "", "cargo metadata failed", nil))
	snap, err := e.Load(context.Background())
	if !errors.IsKind(err, errors.KindProcess) {
		t.Errorf("Load() error = %v", err)
	}
	if snap != before || e.Snapshot() != before {
		t.Error("a failed load must not replace the snapshot")
	}
	if fin, ok := f.events[len(f.events)-1].(LoadFinished); !ok || fin.Err == nil {
		t.Errorf("last event = %+v", f.events[len(f.events)-1])
	}
}

func TestLoad_DiscoveryFailureIsPartial(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.runner.OnError(coreSmokeList, errors.Process("core", "smoke", "does not compile", nil))
	e := f.explorer()

	snap, err := e.Load(context.Background())
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Load() error = %v", err)
	}
	if snap.CaseCount() != 2 {
		t.Errorf("CaseCount() = %d, want the lib tests", snap.CaseCount())
	}
}

func TestReloadDoesNotAffectHeldSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()
	old, _ := e.Load(context.Background())

	f.runner.On(coreLibList, "brand_new: test\n\n1 test\n")
	fresh, _ := e.Load(context.Background())

	if _, ok := old.Case("core::core::lib::it_works"); !ok {
		t.Error("held snapshot lost a case after reload")
	}
	if _, ok := old.Case("core::core::lib::brand_new"); ok {
		t.Error("held snapshot gained a case after reload")
	}
	if _, ok := fresh.Case("core::core::lib::brand_new"); !ok {
		t.Error("fresh snapshot is missing the new case")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.runner.
		On("test -p core --lib it_works -- --format pretty --exact",
			"running 1 test\ntest it_works ... ok\n\ntest result: ok. 1 passed; 0 failed; 0 ignored").
		On("test -p core --lib parse:: --no-fail-fast -- --format pretty",
			"running 1 test\ntest parse::tests::it_parses ... FAILED\n\nfailures:\n\n---- parse::tests::it_parses stdout ----\nparse error\n\ntest result: FAILED.")
	e := f.explorer()
	_, _ = e.Load(context.Background())
	f.events = nil

	ids := []string{"core::core::lib::it_works", "core::core::lib::parse", "missing"}
	res, err := e.Run(context.Background(), ids)
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Run() error = %v, want not found for the unknown id", err)
	}
	if _, perr := uuid.Parse(res.RunID); perr != nil {
		t.Errorf("RunID %q is not a uuid: %v", res.RunID, perr)
	}

	want := []testparser.ResultEvent{
		{TestID: "missing", Status: testparser.StatusErrored, Message: "unknown test node"},
		{TestID: "core::core::lib::it_works", Status: testparser.StatusPassed},
		{TestID: "core::core::lib::parse::tests::it_parses", Status: testparser.StatusFailed, Message: "parse error"},
	}
	if diff := cmp.Diff(want, res.Events); diff != "" {
		t.Errorf("Run() events mismatch (-want +got):\n%s", diff)
	}
	if res.Counts.Passed != 1 || res.Counts.Failed != 1 || res.Counts.Errored != 1 {
		t.Errorf("Counts = %+v", res.Counts)
	}

	started, ok := f.events[0].(RunStarted)
	if !ok || started.RunID != res.RunID || len(started.Tests) != 3 {
		t.Errorf("first event = %+v", f.events[0])
	}
	var tests int
	for _, ev := range f.events[1 : len(f.events)-1] {
		te, ok := ev.(TestEvent)
		if !ok || te.RunID != res.RunID {
			t.Errorf("unexpected event %+v", ev)
		}
		tests++
	}
	if tests != 3 {
		t.Errorf("got %d test events, want 3", tests)
	}
	if fin, ok := f.events[len(f.events)-1].(RunFinished); !ok || fin.Counts.Total != 3 {
		t.Errorf("last event = %+v", f.events[len(f.events)-1])
	}
}

func TestRun_DefaultsToWorkspaceRoot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.runner.
		On("test -p core --lib --no-fail-fast -- --format pretty",
			"running 2 tests\ntest it_works ... ok\ntest parse::tests::it_parses ... ok\n\n").
		On("test -p core --test smoke --no-fail-fast -- --format pretty",
			"running 1 test\ntest smoke_runs ... ignored\n\n")
	e := f.explorer()
	_, _ = e.Load(context.Background())

	res, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Counts.Passed != 2 || res.Counts.Ignored != 1 || res.Counts.Total != 3 {
		t.Errorf("Counts = %+v", res.Counts)
	}
}

func TestRun_BeforeLoad(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	res, err := f.explorer().Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Events) != 0 {
		t.Errorf("Run() on an empty tree = %+v", res.Events)
	}
}

func TestPackageDirs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := f.explorer()
	if dirs := e.PackageDirs(); len(dirs) != 0 {
		t.Errorf("PackageDirs() before load = %v", dirs)
	}

	_, _ = e.Load(context.Background())
	// tool lists no tests, so only core is watched.
	want := []string{filepath.Join(f.dir, "core")}
	if diff := cmp.Diff(want, e.PackageDirs()); diff != "" {
		t.Errorf("PackageDirs() mismatch (-want +got):\n%s", diff)
	}
}
