package privilege

import (
	"context"
	"sync"
)

// NoopExecutor records commands instead of running them. Unscripted
// commands succeed with empty output.
type NoopExecutor struct {
	mu        sync.Mutex
	responses map[string]noopResponse
	commands  []Command
}

type noopResponse struct {
	result *Result
	err    error
}

// NewNoopExecutor creates an empty NoopExecutor.
func NewNoopExecutor() *NoopExecutor {
	return &NoopExecutor{responses: make(map[string]noopResponse)}
}

// On scripts the exit code and stdout for a command line.
func (n *NoopExecutor) On(cmdline string, exitCode int, stdout string) *NoopExecutor {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses[cmdline] = noopResponse{result: &Result{ExitCode: exitCode, Stdout: stdout}}
	return n
}

// OnError scripts an error for a command line.
func (n *NoopExecutor) OnError(cmdline string, err error) *NoopExecutor {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses[cmdline] = noopResponse{err: err}
	return n
}

// Run records cmd and returns its scripted response.
func (n *NoopExecutor) Run(ctx context.Context, cmd Command) (*Result, error) {
	if _, err := cmd.argv(); err != nil {
		return nil, &ExecError{Command: cmd.String(), Err: err}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.commands = append(n.commands, cmd)

	resp, ok := n.responses[cmd.String()]
	if !ok {
		return &Result{}, nil
	}
	return resp.result, resp.err
}

// Commands returns the commands run so far.
func (n *NoopExecutor) Commands() []Command {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Command(nil), n.commands...)
}

// CommandLines returns the rendered command lines run so far.
func (n *NoopExecutor) CommandLines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	lines := make([]string, len(n.commands))
	for i, c := range n.commands {
		lines[i] = c.String()
	}
	return lines
}
