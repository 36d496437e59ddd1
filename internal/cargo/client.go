package cargo

import (
	"context"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

// Client issues the three cargo queries the explorer needs.
type Client struct {
	runner    Runner
	dir       string
	cargoArgs []string
	testArgs  []string
	logger    *zap.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// WorkspaceDir is where metadata and run queries execute.
	WorkspaceDir string
	// CargoArgs are appended to every `cargo test` (e.g. --features x).
	CargoArgs []string
	// TestArgs are passed to the test binary after `--` on runs.
	TestArgs []string
	Logger   *zap.Logger
}

// NewClient creates a new cargo client.
func NewClient(runner Runner, opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		runner:    runner,
		dir:       opts.WorkspaceDir,
		cargoArgs: opts.CargoArgs,
		testArgs:  opts.TestArgs,
		logger:    logger,
	}
}

// Metadata returns the workspace members without dependencies.
func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	out, err := c.runner.Run(ctx, Invocation{
		Dir:  c.dir,
		Args: []string{"metadata", "--no-deps", "--format-version", "1"},
	})
	if err != nil {
		return nil, err
	}
	return ParseMetadata([]byte(out))
}

// ListTests returns the discovery transcript of one package target.
func (c *Client) ListTests(ctx context.Context, pkg *Package, t BuildTarget) (string, error) {
	if pkg == nil {
		return "", errors.InvalidInput("unable to load tests for nil package")
	}
	args := append([]string{"test"}, FilterArgs(pkg.Name, t)...)
	args = append(args, c.cargoArgs...)
	args = append(args, "--", "--list")

	return c.runner.Run(ctx, Invocation{
		Dir:     pkg.Dir(),
		Args:    args,
		Package: pkg.Name,
		Target:  t.Name,
	})
}

// RunRequest scopes one `cargo test` run to a package target.
type RunRequest struct {
	Package string
	Target  BuildTarget
	// Filter is the test-name filter; empty runs every test of the target.
	Filter string
	// Exact makes the harness match Filter exactly instead of as a substring.
	Exact bool
	// NoFailFast keeps cargo going after the first failing test binary.
	NoFailFast bool
}

// RunArgs builds the cargo arguments for a run request.
func (c *Client) RunArgs(req RunRequest) []string {
	args := append([]string{"test"}, FilterArgs(req.Package, req.Target)...)
	if req.Filter != "" {
		args = append(args, req.Filter)
	}
	if req.NoFailFast {
		args = append(args, "--no-fail-fast")
	}
	args = append(args, c.cargoArgs...)
	args = append(args, "--", "--format", "pretty")
	if req.Exact {
		args = append(args, "--exact")
	}
	return append(args, c.testArgs...)
}

// RunTests runs tests and returns the pretty transcript. A non-zero exit is
// tolerated because failing tests produce one.
func (c *Client) RunTests(ctx context.Context, req RunRequest) (string, error) {
	if req.Package == "" {
		return "", errors.InvalidInput("unable to run tests without a package name")
	}
	return c.runner.Run(ctx, Invocation{
		Dir:          c.dir,
		Args:         c.RunArgs(req),
		AllowFailure: true,
		Package:      req.Package,
		Target:       req.Target.Name,
	})
}
