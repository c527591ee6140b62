package pipeline

import (
	"fmt"
	"time"
)

// State is a stage of the install pipeline.
type State int

const (
	CheckingHost State = iota
	CheckingRequirements
	CheckingExisting
	Fetching
	Extracting
	InstallingBinary
	ReconcilingService
	ProvisioningUser
	Done
	Failed
)

var stateNames = [...]string{
	CheckingHost:         "checking host",
	CheckingRequirements: "checking requirements",
	CheckingExisting:     "checking existing install",
	Fetching:             "fetching archive",
	Extracting:           "extracting archive",
	InstallingBinary:     "installing binaries",
	ReconcilingService:   "reconciling service",
	ProvisioningUser:     "provisioning user",
	Done:                 "done",
	Failed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Exit codes reported by the installer.
const (
	ExitSuccess = 0
	ExitFailure = 2
)

// Failure is the error recorded when a step fails.
type Failure struct {
	State State
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.State, f.Err)
}

// Unwrap returns the step's error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome summarizes a pipeline run.
type Outcome struct {
	State        State // Done or Failed
	FailedAt     State // meaningful only when State is Failed
	Err          error // *Failure when State is Failed
	ShortCircuit bool  // the requested version was already installed
	Durations    map[State]time.Duration
}

// ExitCode maps the outcome to the process exit status.
func (o *Outcome) ExitCode() int {
	if o != nil && o.State == Done {
		return ExitSuccess
	}
	return ExitFailure
}

// Succeeded reports whether the pipeline reached Done.
func (o *Outcome) Succeeded() bool {
	return o.ExitCode() == ExitSuccess
}
