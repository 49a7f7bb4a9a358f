// Package check holds the outcome type shared by every validation step.
package check

import "strings"

// Status represents the outcome of a check.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string   // e.g., "TestContainerLogs"
	Status  Status   // OK or FAIL
	Details []string // human-readable details
	Err     error    // set only when evaluating the check raised an error
}

// OK returns true if the check passed.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Raised reports whether the check failed because its evaluation errored,
// as opposed to an expectation that did not hold.
func (r Result) Raised() bool {
	return r.Err != nil
}

// Diagnostic joins the detail lines into a single line.
func (r Result) Diagnostic() string {
	return strings.Join(r.Details, "; ")
}
