package suite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/vertti/composecert/pkg/check"
	"github.com/vertti/composecert/pkg/runtime"
)

var (
	ErrDuplicateName    = errors.New("duplicate check name")
	ErrDuplicateOrdinal = errors.New("duplicate check ordinal")
	ErrInvalidSpec      = errors.New("invalid check spec")
)

// Predicate evaluates one check. A returned error means evaluation itself
// failed (the daemon could not be queried, say); an expectation that does not
// hold is a failed Result with a nil error.
type Predicate func(ctx context.Context, sc *Context) (check.Result, error)

// Spec is a named, ordered check.
type Spec struct {
	Name    string
	Ordinal int
	Run     Predicate
}

// Target holds the values the checks expect to observe.
type Target struct {
	Image     string
	Container string
	Network   string
	LogMarker string

	// ProcessMarker is matched case-insensitively against the lines of
	// ProcessCommand's output.
	ProcessMarker  string
	ProcessCommand []string

	// MinDaemonVersion, when set, is the lowest acceptable daemon version.
	MinDaemonVersion *semver.Version
}

// Context is built once per run and passed to every predicate.
type Context struct {
	Runtime runtime.Runtime
	Target  Target
}

// orderSpecs validates specs and returns them sorted by ordinal.
func orderSpecs(specs []Spec) ([]Spec, error) {
	names := make(map[string]bool, len(specs))
	ordinals := make(map[int]string, len(specs))

	for _, s := range specs {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("%w: empty name at ordinal %d", ErrInvalidSpec, s.Ordinal)
		}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: %s has no predicate", ErrInvalidSpec, s.Name)
		}
		if names[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)
		}
		if other, ok := ordinals[s.Ordinal]; ok {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateOrdinal, s.Ordinal, other, s.Name)
		}
		names[s.Name] = true
		ordinals[s.Ordinal] = s.Name
	}

	ordered := append([]Spec(nil), specs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })
	return ordered, nil
}
