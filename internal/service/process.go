package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessFinder reports whether any process with one of the given names is
// running.
type ProcessFinder interface {
	Running(ctx context.Context, names ...string) (bool, error)
}

// ProcessTable implements ProcessFinder with gopsutil.
type ProcessTable struct{}

// Running scans the process table. Processes that exit or deny access
// while being inspected are skipped.
func (ProcessTable) Running(ctx context.Context, names ...string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if slices.Contains(names, name) {
			return true, nil
		}
	}
	return false, nil
}

// StaticFinder is a ProcessFinder with a fixed answer.
type StaticFinder struct {
	Found bool
	Err   error
}

// Running returns the configured answer.
func (f StaticFinder) Running(context.Context, ...string) (bool, error) {
	return f.Found, f.Err
}
