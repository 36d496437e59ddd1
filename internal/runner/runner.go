// Package runner runs tree nodes through cargo and collects result events.
package runner

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/testparser"
	"github.com/AndreyAkinshin/cargotest/internal/tree"
)

const (
	// minParallelWorkers keeps the semaphore from blocking forever when
	// runtime.NumCPU() reports 0.
	minParallelWorkers = 1

	// maxParallelWorkers caps concurrent cargo processes. Each one compiles
	// and runs a test binary, so more than this only adds contention.
	maxParallelWorkers = 256
)

// NoResultMessage is the message of the errored event reported for a test
// case whose run produced no result line.
const NoResultMessage = "no result reported"

// Client runs `cargo test` for one package target.
type Client interface {
	RunTests(ctx context.Context, req cargo.RunRequest) (string, error)
}

// Options configures a Runner.
type Options struct {
	// Parallel bounds concurrent cargo processes. Zero means runtime.NumCPU().
	Parallel int
	Logger   *zap.Logger
}

// Runner executes test cases and suites. Every cargo invocation holds a
// worker slot, so nested fan-out never exceeds the configured parallelism.
type Runner struct {
	client Client
	sem    chan struct{}
	logger *zap.Logger
}

// New creates a new Runner.
func New(client Client, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		client: client,
		sem:    make(chan struct{}, workerCount(opts.Parallel)),
		logger: logger,
	}
}

// workerCount clamps n to [minParallelWorkers, maxParallelWorkers],
// defaulting to the CPU count.
func workerCount(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return min(max(n, minParallelWorkers), maxParallelWorkers)
}

// invoke runs one cargo process while holding a worker slot.
func (r *Runner) invoke(ctx context.Context, req cargo.RunRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r.sem <- struct{}{}:
	}
	defer func() { <-r.sem }()

	return r.client.RunTests(ctx, req)
}

// RunCase runs one test with an exact filter and returns its event. Exactly
// one test is expected to run; when none reports, the case is errored.
func (r *Runner) RunCase(ctx context.Context, c *tree.CaseNode) (testparser.ResultEvent, error) {
	if c == nil {
		return testparser.ResultEvent{}, errors.InvalidInput("unable to run nil test case")
	}

	transcript, err := r.invoke(ctx, cargo.RunRequest{
		Package: c.PackageName,
		Target:  c.Target,
		Filter:  c.TestSpecName,
		Exact:   true,
	})
	if err != nil {
		r.logger.Error("test case run failed",
			zap.String("package", c.PackageName),
			zap.String("target", c.Target.Name),
			zap.String("test", c.TestSpecName),
			zap.Error(err))
		return testparser.ResultEvent{}, withTest(err, c.TestSpecName)
	}

	events := testparser.ParsePretty(c.NodeIDPrefix, transcript)
	if len(events) == 0 {
		return testparser.ResultEvent{TestID: c.ID, Status: testparser.StatusErrored, Message: NoResultMessage}, nil
	}
	return events[0], nil
}

// RunSuite runs a non-structural suite once per build target it spans,
// concurrently. Only events inside the suite are kept; the substring filter
// also matches sibling modules that share a name prefix. Events are ordered
// by target, then by transcript line.
//
// A failing target does not stop the others: events of the targets that
// ran are returned together with the joined errors.
func (r *Runner) RunSuite(ctx context.Context, s *tree.SuiteNode) ([]testparser.ResultEvent, error) {
	if s == nil {
		return nil, errors.InvalidInput("unable to run nil test suite")
	}
	events, errs := r.runSuite(ctx, s)
	return events, errors.Join(compact(errs))
}

// runSuite returns the suite events and one error slot per target.
func (r *Runner) runSuite(ctx context.Context, s *tree.SuiteNode) ([]testparser.ResultEvent, []error) {
	perTarget := make([][]testparser.ResultEvent, len(s.Targets))
	errs := make([]error, len(s.Targets))
	scope := s.ID + tree.Separator

	var g errgroup.Group
	for i, t := range s.Targets {
		g.Go(func() error {
			transcript, err := r.invoke(ctx, cargo.RunRequest{
				Package:    s.PackageName,
				Target:     t,
				Filter:     s.TestSpecName,
				NoFailFast: true,
			})
			if err != nil {
				r.logger.Error("test suite run failed",
					zap.String("package", s.PackageName),
					zap.String("target", t.Name),
					zap.String("suite", s.ID),
					zap.Error(err))
				errs[i] = withTest(err, s.TestSpecName)
				return nil
			}
			for _, e := range testparser.ParsePretty(tree.TargetRootID(s.PackageName, t), transcript) {
				if strings.HasPrefix(e.TestID, scope) {
					perTarget[i] = append(perTarget[i], e)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	var events []testparser.ResultEvent
	for _, e := range perTarget {
		events = append(events, e...)
	}
	return events, errs
}

// Flatten resolves node ids to the nodes that are run directly: cases and
// non-structural suites. Structural suites are replaced by their children.
// Unknown ids are returned separately. Each node appears once.
func Flatten(snap *tree.Snapshot, ids []string) (nodes []tree.Node, unknown []string) {
	seen := make(map[string]bool)
	var visit func(n tree.Node)
	visit = func(n tree.Node) {
		if seen[n.NodeID()] {
			return
		}
		seen[n.NodeID()] = true
		s, isSuite := n.(*tree.SuiteNode)
		if !isSuite || !s.IsStructural {
			nodes = append(nodes, n)
			return
		}
		for _, child := range s.ChildIDs {
			if c, ok := snap.Lookup(child); ok {
				visit(c)
			}
		}
	}

	for _, id := range ids {
		n, ok := snap.Lookup(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		visit(n)
	}
	return nodes, unknown
}

// Run runs the given nodes of a snapshot concurrently. Events are returned
// in node order; observe, when non-nil, additionally receives every event
// as soon as its node finishes. Unknown ids and failed invocations are
// reported as errored events for the affected cases and as the returned
// error.
func (r *Runner) Run(ctx context.Context, snap *tree.Snapshot, ids []string, observe func(testparser.ResultEvent)) ([]testparser.ResultEvent, error) {
	nodes, unknown := Flatten(snap, ids)

	var mu sync.Mutex
	emit := func(events []testparser.ResultEvent) {
		if observe == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			observe(e)
		}
	}

	var errs []error
	var events []testparser.ResultEvent
	for _, id := range unknown {
		errs = append(errs, errors.NotFound("test node", id))
		e := testparser.ResultEvent{TestID: id, Status: testparser.StatusErrored, Message: "unknown test node"}
		emit([]testparser.ResultEvent{e})
		events = append(events, e)
	}

	results := make([][]testparser.ResultEvent, len(nodes))
	nodeErrs := make([]error, len(nodes))

	var g errgroup.Group
	for i, n := range nodes {
		g.Go(func() error {
			results[i], nodeErrs[i] = r.runNode(ctx, snap, n)
			emit(results[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range nodes {
		events = append(events, results[i]...)
	}
	errs = append(errs, compact(nodeErrs)...)
	return events, errors.Join(errs)
}

// runNode runs a single flattened node. When the invocation fails, every
// case of the node without an event is reported errored with the failure
// message.
func (r *Runner) runNode(ctx context.Context, snap *tree.Snapshot, n tree.Node) ([]testparser.ResultEvent, error) {
	switch n := n.(type) {
	case *tree.CaseNode:
		e, err := r.RunCase(ctx, n)
		if err != nil {
			return []testparser.ResultEvent{erroredEvent(n.ID, err)}, err
		}
		return []testparser.ResultEvent{e}, nil
	case *tree.SuiteNode:
		events, errs := r.runSuite(ctx, n)
		for i, err := range errs {
			if err != nil {
				events = append(events, missingCases(snap, n, n.Targets[i], events, err)...)
			}
		}
		return events, errors.Join(compact(errs))
	}
	return nil, nil
}

// missingCases returns errored events for the cases of target under s that
// have no event yet.
func missingCases(snap *tree.Snapshot, s *tree.SuiteNode, target cargo.BuildTarget, got []testparser.ResultEvent, err error) []testparser.ResultEvent {
	reported := make(map[string]bool, len(got))
	for _, e := range got {
		reported[e.TestID] = true
	}
	var missing []testparser.ResultEvent
	var visit func(id string)
	visit = func(id string) {
		n, ok := snap.Lookup(id)
		if !ok {
			return
		}
		switch n := n.(type) {
		case *tree.CaseNode:
			if n.Target == target && !reported[n.ID] {
				missing = append(missing, erroredEvent(n.ID, err))
			}
		case *tree.SuiteNode:
			for _, child := range n.ChildIDs {
				visit(child)
			}
		}
	}
	visit(s.ID)
	return missing
}

func erroredEvent(id string, err error) testparser.ResultEvent {
	return testparser.ResultEvent{TestID: id, Status: testparser.StatusErrored, Message: err.Error()}
}

// withTest adds the test name to cargotest errors.
func withTest(err error, test string) error {
	if e, ok := err.(*errors.Error); ok && e.Test == "" {
		return e.WithTest(test)
	}
	return err
}

func compact(errs []error) []error {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
