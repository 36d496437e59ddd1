// Package mocks provides shared test doubles for cargotest packages.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
)

// Response is a scripted result for one cargo invocation.
type Response struct {
	Output string
	Err    error
}

// Runner implements cargo.Runner for testing.
// Responses are keyed by the space-joined argument list.
// Use NewRunner() to create instances with a fluent builder API.
type Runner struct {
	responses map[string]Response

	// RunFunc, when set, is called for invocations without a scripted response.
	RunFunc func(ctx context.Context, inv cargo.Invocation) (string, error)

	// Invocation tracking (thread-safe)
	callCount int32
	mu        sync.Mutex
	calls     []cargo.Invocation
}

// NewRunner creates a new mock runner with no scripted responses.
func NewRunner() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On scripts the output returned for the given arguments.
func (m *Runner) On(args string, output string) *Runner {
	m.responses[args] = Response{Output: output}
	return m
}

// OnError scripts an error returned for the given arguments.
func (m *Runner) OnError(args string, err error) *Runner {
	m.responses[args] = Response{Err: err}
	return m
}

// WithRunFunc sets the fallback function for unscripted invocations.
func (m *Runner) WithRunFunc(fn func(ctx context.Context, inv cargo.Invocation) (string, error)) *Runner {
	m.RunFunc = fn
	return m
}

// Run implements cargo.Runner.
func (m *Runner) Run(ctx context.Context, inv cargo.Invocation) (string, error) {
	atomic.AddInt32(&m.callCount, 1)
	m.mu.Lock()
	m.calls = append(m.calls, inv)
	m.mu.Unlock()

	key := strings.Join(inv.Args, " ")
	if resp, ok := m.responses[key]; ok {
		return resp.Output, resp.Err
	}
	if m.RunFunc != nil {
		return m.RunFunc(ctx, inv)
	}
	return "", fmt.Errorf("mocks: no response scripted for %q", key)
}

// Test inspection methods

// CallCount returns the number of times Run was called.
func (m *Runner) CallCount() int32 {
	return atomic.LoadInt32(&m.callCount)
}

// Calls returns the recorded invocations in call order.
func (m *Runner) Calls() []cargo.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]cargo.Invocation, len(m.calls))
	copy(result, m.calls)
	return result
}

// CalledWith reports whether any invocation used exactly these arguments.
func (m *Runner) CalledWith(args string) bool {
	for _, c := range m.Calls() {
		if strings.Join(c.Args, " ") == args {
			return true
		}
	}
	return false
}

// Reset clears invocation tracking state.
func (m *Runner) Reset() {
	atomic.StoreInt32(&m.callCount, 0)
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}
