package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is against any *Error of the same Kind.
var (
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	ErrNotFound           = errors.New("not found")
	ErrAdapter            = errors.New("runtime adapter error")
)

// Kind classifies runtime errors.
type Kind int

const (
	KindAdapter Kind = iota
	KindUnavailable
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "adapter"
	}
}

// Error is a classified runtime failure with remediation steps.
type Error struct {
	Kind      Kind
	Op        string   // operation that failed (e.g., "version", "inspect", "logs")
	Target    string   // object name, if any
	Err       error    // underlying error
	NextSteps []string // suggested remediation steps
}

func (e *Error) Error() string {
	var prefix string
	switch e.Kind {
	case KindUnavailable:
		prefix = "cannot connect to container runtime"
	case KindNotFound:
		prefix = fmt.Sprintf("%s %q not found", e.Op, e.Target)
		if e.Err == nil {
			return prefix
		}
	default:
		prefix = e.Op
		if e.Target != "" {
			prefix += " " + e.Target
		}
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRuntimeUnavailable:
		return e.Kind == KindUnavailable
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrAdapter:
		return e.Kind == KindAdapter
	}
	return false
}

// FormatUserError formats the error for display to users with next steps.
func (e *Error) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Error()))

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// Unavailable returns an error for when the daemon cannot be reached.
func Unavailable(op string, err error) *Error {
	return &Error{
		Kind: KindUnavailable,
		Op:   op,
		Err:  err,
		NextSteps: []string{
			"Ensure Docker is installed and the daemon is running",
			"Check DOCKER_HOST or the runtime.host setting",
			"Check if the Docker socket is accessible: ls -la /var/run/docker.sock",
		},
	}
}

// NotFound returns an error for a named object that does not exist.
func NotFound(op, target string, err error) *Error {
	return &Error{
		Kind:   KindNotFound,
		Op:     op,
		Target: target,
		Err:    err,
		NextSteps: []string{
			"Check the compose manifest declares " + target,
			"Check all containers: docker ps -a",
		},
	}
}

// Adapter returns an error for any other transport or decode failure.
func Adapter(op, target string, err error) *Error {
	return &Error{Kind: KindAdapter, Op: op, Target: target, Err: err}
}
