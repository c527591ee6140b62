package command

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are keyed by the
// rendered command line (see String); unknown commands fail to start.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	result *Result
	err    error
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]fakeResponse)}
}

// On scripts the result for a command line.
func (f *FakeRunner) On(cmdline string, exitCode int, stdout string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = fakeResponse{result: &Result{ExitCode: exitCode, Stdout: stdout}}
	return f
}

// OnError scripts a start failure for a command line.
func (f *FakeRunner) OnError(cmdline string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = fakeResponse{err: err}
	return f
}

// Run returns the scripted response for the command line.
func (f *FakeRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) (*Result, error) {
	key := String(name, args...)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)

	resp, ok := f.responses[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s: executable file not found in $PATH", ErrNotStarted, name)
	}
	return resp.result, resp.err
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
