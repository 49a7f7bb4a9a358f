// Package procrun runs external commands (the compose tool, the process
// manager) and separates "could not start" from "exited non-zero".
package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrInvocation matches any error returned when a command could not be
// started at all. A command that ran and exited non-zero is not an error.
var ErrInvocation = errors.New("command could not be started")

// InvocationError describes a command that could not be started.
type InvocationError struct {
	Name string
	Args []string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", strings.Join(append([]string{e.Name}, e.Args...), " "), e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvocation) hold for every InvocationError.
func (e *InvocationError) Is(target error) bool {
	return target == ErrInvocation
}

// Output is the captured result of a finished command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited zero.
func (o Output) Success() bool {
	return o.ExitCode == 0
}

// Lines splits stdout into lines, dropping the trailing empty line.
func (o Output) Lines() []string {
	text := strings.TrimRight(strings.ReplaceAll(o.Stdout, "\r\n", "\n"), "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// Runner abstracts command execution for testability.
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// RealRunner implements Runner using actual OS commands.
type RealRunner struct {
	Dir string // working directory; empty means the current one
}

// LookPath searches for an executable in PATH.
func (r *RealRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output. The error is non-nil only
// when the command could not be started.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	out := Output{Stdout: outBuf.String(), Stderr: errBuf.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, &InvocationError{Name: name, Args: args, Err: err}
	}
	return out, nil
}

// MockRunner is a test double for Runner. Every Run call is appended to
// Calls as name followed by args.
type MockRunner struct {
	LookPathFunc func(file string) (string, error)
	RunFunc      func(ctx context.Context, name string, args ...string) (Output, error)
	Calls        [][]string
}

// LookPath calls the mock function, defaulting to "/usr/bin/<file>".
func (m *MockRunner) LookPath(file string) (string, error) {
	if m.LookPathFunc == nil {
		return "/usr/bin/" + file, nil
	}
	return m.LookPathFunc(file)
}

// Run records the call and calls the mock function, defaulting to an empty
// successful output.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunFunc == nil {
		return Output{}, nil
	}
	return m.RunFunc(ctx, name, args...)
}
