// Package explorer implements the load, run and navigate operations of the
// test explorer over an atomically replaced tree snapshot.
package explorer

import (
	"context"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/locate"
	"github.com/AndreyAkinshin/cargotest/internal/runner"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

// Cargo is the subset of *cargo.Client the explorer uses.
type Cargo interface {
	Metadata(ctx context.Context) (*cargo.Metadata, error)
	ListTests(ctx context.Context, pkg *cargo.Package, t cargo.BuildTarget) (string, error)
	runner.Client
}

// Options configures an Explorer.
type Options struct {
	// WorkspaceDir labels the root before cargo reports the workspace root.
	WorkspaceDir         string
	LoadUnitTests        bool
	LoadIntegrationTests bool
	// Parallel bounds concurrent cargo processes.
	Parallel int
	Logger   *zap.Logger
	// OnEvent receives load and run events. Calls are serialized.
	OnEvent func(Event)
}

// Explorer owns the current snapshot. Readers get the snapshot that was
// current when they started; a reload never mutates it.
type Explorer struct {
	cargo    Cargo
	runner   *runner.Runner
	builder  *tree.Builder
	resolver *locate.Resolver
	opts     Options
	logger   *zap.Logger

	snapshot atomic.Pointer[tree.Snapshot]
	loadMu   sync.Mutex
	eventMu  sync.Mutex

	dirsMu      sync.Mutex
	packageDirs []string
}

// New creates an explorer with an empty tree.
func New(c Cargo, opts Options) *Explorer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Explorer{
		cargo:    c,
		runner:   runner.New(c, runner.Options{Parallel: opts.Parallel, Logger: logger}),
		builder:  tree.NewBuilder(logger),
		resolver: locate.NewResolver(logger),
		opts:     opts,
		logger:   logger,
	}
	e.snapshot.Store(tree.Empty(workspaceLabel(opts.WorkspaceDir)))
	return e
}

// Snapshot returns the current tree.
func (e *Explorer) Snapshot() *tree.Snapshot {
	return e.snapshot.Load()
}

func (e *Explorer) emit(ev Event) {
	if e.opts.OnEvent == nil {
		return
	}
	e.eventMu.Lock()
	defer e.eventMu.Unlock()
	e.opts.OnEvent(ev)
}

// discoveryJob is one `cargo test --list` of a package target.
type discoveryJob struct {
	pkg    *cargo.Package
	target cargo.BuildTarget
}

// Load discovers every test of the workspace and publishes the new tree.
// Discovery runs one cargo process per package target concurrently. When
// some targets fail the others are still published and the joined errors
// are returned.
func (e *Explorer) Load(ctx context.Context) (*tree.Snapshot, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.emit(LoadStarted{})
	e.logger.Info("loading tests", zap.String("dir", e.opts.WorkspaceDir))

	md, err := e.cargo.Metadata(ctx)
	if err != nil {
		e.logger.Error("unable to load cargo metadata", zap.Error(err))
		e.emit(LoadFinished{Suite: e.Snapshot().Describe(), Err: err})
		return e.Snapshot(), err
	}

	var errs []error
	var jobs []discoveryJob
	for _, pkg := range md.Packages {
		if pkg == nil {
			errs = append(errs, errors.InvalidInput("unable to load tests for nil package"))
			continue
		}
		for _, raw := range pkg.Targets {
			t, ok := cargo.NewBuildTarget(raw, e.logger.With(zap.String("package", pkg.Name)))
			if !ok || !e.wants(t) {
				continue
			}
			jobs = append(jobs, discoveryJob{pkg: pkg, target: t})
		}
	}

	outputs := make([]string, len(jobs))
	jobErrs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(discoveryWorkers(e.opts.Parallel))
	for i, job := range jobs {
		g.Go(func() error {
			outputs[i], jobErrs[i] = e.cargo.ListTests(ctx, job.pkg, job.target)
			return nil
		})
	}
	_ = g.Wait()

	listings := make(map[*cargo.Package][]tree.Listing)
	for i, job := range jobs {
		if jobErrs[i] != nil {
			e.logger.Error("test discovery failed",
				zap.String("package", job.pkg.Name),
				zap.String("target", job.target.Name),
				zap.Error(jobErrs[i]))
			errs = append(errs, jobErrs[i])
			continue
		}
		listings[job.pkg] = append(listings[job.pkg], tree.Listing{
			Target: job.target,
			Lines:  testparser.ParseTestList(outputs[i]),
		})
	}

	var packages []*tree.Snapshot
	dirs := make(map[string]string)
	for _, pkg := range md.Packages {
		if pkg == nil {
			continue
		}
		snap := e.builder.BuildPackage(pkg.Name, listings[pkg])
		if snap == nil {
			continue
		}
		packages = append(packages, snap)
		dirs[pkg.Name] = pkg.Dir()
	}

	label := workspaceLabel(md.WorkspaceRoot)
	if md.WorkspaceRoot == "" {
		label = workspaceLabel(e.opts.WorkspaceDir)
	}
	snap := tree.Merge(label, packages)
	e.resolver.Resolve(snap, dirs)
	e.snapshot.Store(snap)
	e.setPackageDirs(dirs)

	err = errors.Join(errs)
	e.logger.Info("tests loaded",
		zap.Int("packages", len(packages)),
		zap.Int("tests", snap.CaseCount()),
		zap.Int("failures", len(errs)))
	e.emit(LoadFinished{Suite: snap.Describe(), Err: err})
	return snap, err
}

func (e *Explorer) setPackageDirs(dirs map[string]string) {
	list := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		list = append(list, dir)
	}
	slices.Sort(list)

	e.dirsMu.Lock()
	e.packageDirs = slices.Compact(list)
	e.dirsMu.Unlock()
}

// PackageDirs returns the directories of the packages that contributed
// tests to the last load, sorted.
func (e *Explorer) PackageDirs() []string {
	e.dirsMu.Lock()
	defer e.dirsMu.Unlock()
	return slices.Clone(e.packageDirs)
}

// wants reports whether targets of this kind are loaded.
func (e *Explorer) wants(t cargo.BuildTarget) bool {
	if t.IsUnit() {
		return e.opts.LoadUnitTests
	}
	return e.opts.LoadIntegrationTests
}

// RunResult is the outcome of one Run.
type RunResult struct {
	RunID  string
	Events []testparser.ResultEvent
	Counts testparser.TestCounts
}

// Run runs the given node ids against the current snapshot. No ids means
// the whole workspace. Events are emitted as tests finish; the result holds
// them in node order.
func (e *Explorer) Run(ctx context.Context, ids []string) (*RunResult, error) {
	snap := e.Snapshot()
	if len(ids) == 0 {
		ids = []string{snap.Root.ID}
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run", runID))
	e.emit(RunStarted{RunID: runID, Tests: ids})
	logger.Info("run started", zap.Strings("tests", ids))

	events, err := e.runner.Run(ctx, snap, ids, func(ev testparser.ResultEvent) {
		e.emit(TestEvent{RunID: runID, ResultEvent: ev})
	})
	counts := testparser.CountEvents(events)

	logger.Info("run finished",
		zap.Int("passed", counts.Passed),
		zap.Int("failed", counts.Failed),
		zap.Int("ignored", counts.Ignored),
		zap.Int("errored", counts.Errored))
	e.emit(RunFinished{RunID: runID, Counts: counts, Err: err})

	return &RunResult{RunID: runID, Events: events, Counts: counts}, err
}

// Location is a source position of a test case. Line is 1-based.
type Location struct {
	File string
	Line int
}

// Locate returns where a test case is defined. The line defaults to 1 when
// only the file is known.
func (e *Explorer) Locate(id string) (Location, error) {
	c, ok := e.Snapshot().Case(id)
	if !ok {
		return Location{}, errors.NotFound("test case", id)
	}
	if !c.HasLocation() {
		return Location{}, errors.NotFound("source location", id)
	}
	return Location{File: c.File, Line: max(c.Line, 1)}, nil
}

func discoveryWorkers(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(n, 1)
}

func workspaceLabel(dir string) string {
	if dir == "" {
		return "workspace"
	}
	return filepath.Base(dir)
}
