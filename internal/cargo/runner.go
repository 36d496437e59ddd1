package cargo

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/acarl005/stripansi"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

// DefaultMaxOutputBytes caps the stdout captured from one invocation.
const DefaultMaxOutputBytes = 16 << 20

// stderrTailBytes is how much of stderr is kept in process errors.
const stderrTailBytes = 2048

// Invocation describes one cargo process.
type Invocation struct {
	Dir  string
	Args []string
	// AllowFailure tolerates a non-zero exit; failing tests exit non-zero.
	AllowFailure bool

	// Package and Target only give errors context.
	Package string
	Target  string
}

// Runner executes cargo and returns its stdout.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (string, error)
}

// ExecRunner runs the real cargo binary.
type ExecRunner struct {
	binary    string
	env       []string
	maxOutput int
	logger    *zap.Logger
}

// NewExecRunner creates a runner for the given cargo binary. env entries are
// KEY=VALUE pairs appended to the current process environment.
func NewExecRunner(binary string, env []string, maxOutput int, logger *zap.Logger) *ExecRunner {
	if binary == "" {
		binary = "cargo"
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		binary:    binary,
		env:       env,
		maxOutput: maxOutput,
		logger:    logger,
	}
}

// Run executes one cargo invocation. Stdout is returned with ANSI escapes
// stripped so the transcript parsers see plain text.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), r.env...)

	stdout := &cappedBuffer{limit: r.maxOutput}
	var stderr cappedBuffer
	stderr.limit = r.maxOutput
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running cargo",
		zap.String("dir", inv.Dir),
		zap.String("args", strings.Join(inv.Args, " ")))

	err := cmd.Run()
	if err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return "", errors.Environmentf("cargo binary %q not found on PATH", r.binary)
		}
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) || !inv.AllowFailure {
			return "", errors.Process(inv.Package, inv.Target,
				"cargo "+firstArg(inv.Args)+" failed: "+tail(stderr.String(), stderrTailBytes), err)
		}
	}
	if stdout.overflow {
		return "", errors.Process(inv.Package, inv.Target, "cargo output exceeded the configured size limit", nil)
	}

	return stripansi.Strip(stdout.String()), nil
}

// cappedBuffer keeps at most limit bytes and records whether more arrived.
// Writes never fail so the child process is not blocked on a full pipe.
type cappedBuffer struct {
	bytes.Buffer
	limit    int
	overflow bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.Len()
	if room <= 0 {
		b.overflow = b.overflow || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.overflow = true
		b.Buffer.Write(p[:room])
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
