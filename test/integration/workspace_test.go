package integration

import (
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/explorer"
	"github.com/AndreyAkinshin/cargotest/internal/project"
	"github.com/AndreyAkinshin/cargotest/internal/testing/mocks"
	"github.com/AndreyAkinshin/cargotest/pkg/testhelper"
)

func workspaceDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join(fixturesDir(), "workspace"))
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// scriptedCargo replays the calc transcripts for the workspace fixture.
func scriptedCargo(t *testing.T, root string) *mocks.Runner {
	t.Helper()
	md, err := json.Marshal(cargo.Metadata{
		WorkspaceRoot: root,
		Packages: []*cargo.Package{{
			Name:         "calc",
			ManifestPath: filepath.Join(root, "calc", "Cargo.toml"),
			Targets: []cargo.Target{
				{Name: "calc", Kind: []string{"lib"}},
				{Name: "smoke", Kind: []string{"test"}},
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	return mocks.NewRunner().
		On("metadata --no-deps --format-version 1", string(md)).
		On("test -p calc --lib -- --list", transcript(t, "list", "calc-lib")).
		On("test -p calc --test smoke -- --list", transcript(t, "list", "calc-smoke")).
		On("test -p calc --lib --no-fail-fast -- --format pretty", transcript(t, "pretty", "calc-lib")).
		On("test -p calc --test smoke --no-fail-fast -- --format pretty", transcript(t, "pretty", "calc-smoke"))
}

func newExplorer(t *testing.T, onEvent func(explorer.Event)) (*explorer.Explorer, *project.Project) {
	t.Helper()
	root, err := project.FindRootFrom(filepath.Join(workspaceDir(t), "calc", "src"))
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	proj, err := project.LoadProjectFrom(root)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}

	client := cargo.NewClient(scriptedCargo(t, proj.Root), cargo.ClientOptions{
		WorkspaceDir: proj.Root,
		CargoArgs:    proj.Config.CargoArgs,
		TestArgs:     proj.Config.TestArgs,
	})
	return explorer.New(client, explorer.Options{
		WorkspaceDir:         proj.Root,
		LoadUnitTests:        proj.Config.UnitTests(),
		LoadIntegrationTests: proj.Config.IntegrationTests(),
		Parallel:             proj.Config.Parallel,
		OnEvent:              onEvent,
	}), proj
}

func TestWorkspaceProject(t *testing.T) {
	t.Parallel()
	_, proj := newExplorer(t, nil)

	if proj.Root != workspaceDir(t) {
		t.Errorf("root = %q, want %q", proj.Root, workspaceDir(t))
	}
	if proj.Config.Parallel != 2 {
		t.Errorf("parallel = %d, want 2", proj.Config.Parallel)
	}
	if !slices.Contains(proj.Env, "RUST_BACKTRACE=0") {
		t.Errorf("env = %v, want RUST_BACKTRACE=0", proj.Env)
	}
	if len(proj.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", proj.Warnings)
	}
}

func TestWorkspaceLoadAndLocate(t *testing.T) {
	t.Parallel()
	exp, _ := newExplorer(t, nil)

	snap, err := exp.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.CaseCount() != 4 {
		t.Errorf("CaseCount() = %d, want 4", snap.CaseCount())
	}

	loc, err := exp.Locate("calc::calc::lib::ops::tests::divides")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if filepath.Base(loc.File) != "ops.rs" || loc.Line != 19 {
		t.Errorf("Locate() = %s:%d, want ops.rs:19", loc.File, loc.Line)
	}

	loc, err = exp.Locate("calc::smoke::test::smoke_runs")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if filepath.Base(loc.File) != "smoke.rs" || loc.Line != 2 {
		t.Errorf("Locate() = %s:%d, want smoke.rs:2", loc.File, loc.Line)
	}
}

func TestWorkspaceRun(t *testing.T) {
	t.Parallel()
	var (
		mu       sync.Mutex
		streamed int
	)
	exp, _ := newExplorer(t, func(ev explorer.Event) {
		if _, ok := ev.(explorer.TestEvent); ok {
			mu.Lock()
			streamed++
			mu.Unlock()
		}
	})
	if _, err := exp.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := exp.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var want []testhelper.Event
	for _, name := range []string{"calc-lib", "calc-smoke"} {
		fx, err := testhelper.LoadFixture(filepath.Join(moduleRoot(), "test", "fixtures", "transcripts", "pretty", name+".json"))
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, fx.Events...)
	}
	opts := testhelper.DefaultOptions()
	opts.EventOrder = "unordered"
	if ok, diff := testhelper.CompareEvents(want, toEvents(result.Events), opts); !ok {
		t.Errorf("Run() events mismatch (-want +got):\n%s", diff)
	}

	counts := result.Counts
	if diff := cmp.Diff([4]int{2, 1, 1, 0}, [4]int{counts.Passed, counts.Failed, counts.Ignored, counts.Errored}); diff != "" {
		t.Errorf("counts (passed, failed, ignored, errored) mismatch (-want +got):\n%s", diff)
	}
	if counts.OK() {
		t.Error("counts.OK() = true with a failing test")
	}

	mu.Lock()
	defer mu.Unlock()
	if streamed != 4 {
		t.Errorf("streamed %d test events, want 4", streamed)
	}
}
