// Package suite runs an ordered list of checks against a live environment and
// collects their outcomes.
package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vertti/composecert/pkg/check"
	"github.com/vertti/composecert/pkg/report"
)

var (
	// ErrHalted is returned by Run under the Strict policy when a check fails.
	ErrHalted     = errors.New("suite halted on failed check")
	ErrAlreadyRun = errors.New("suite already run")
	errPanicked   = errors.New("check panicked")
)

// Policy decides what happens after a failed check.
type Policy int

const (
	// Lenient records every failure and runs the remaining checks.
	Lenient Policy = iota
	// Strict stops at the first failed check.
	Strict
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "lenient"
	}
}

// ParsePolicy parses "strict" or "lenient". Empty means lenient.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("unknown policy %q (want strict or lenient)", s)
	}
}

// State is the sequencer's lifecycle.
type State int

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "not_started"
	}
}

// Printer receives each outcome as soon as it is known.
type Printer interface {
	PrintResult(r check.Result)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithPolicy(p Policy) Option {
	return func(s *Sequencer) { s.policy = p }
}

func WithReporter(r report.Reporter) Option {
	return func(s *Sequencer) { s.reporter = r }
}

func WithPrinter(p Printer) Option {
	return func(s *Sequencer) { s.printer = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Sequencer) { s.log = log }
}

// Sequencer executes checks one at a time in ordinal order. It is single use;
// build a new one for each run.
type Sequencer struct {
	specs    []Spec
	policy   Policy
	reporter report.Reporter
	printer  Printer
	log      zerolog.Logger

	state State
	index int
}

// New validates specs and returns a sequencer that runs them in ordinal order.
func New(specs []Spec, opts ...Option) (*Sequencer, error) {
	ordered, err := orderSpecs(specs)
	if err != nil {
		return nil, err
	}
	s := &Sequencer{
		specs: ordered,
		log:   zerolog.Nop(),
		index: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "suite").Logger()
	return s, nil
}

// Specs returns the checks in execution order.
func (s *Sequencer) Specs() []Spec {
	return append([]Spec(nil), s.specs...)
}

func (s *Sequencer) Policy() Policy { return s.policy }
func (s *Sequencer) State() State   { return s.state }

// Index returns the position of the check being or last executed, or -1
// before the run starts.
func (s *Sequencer) Index() int { return s.index }

// Run executes every check in order. Each outcome is recorded with the
// reporter and printed before the next check starts. Under Strict the run
// stops at the first failure and the partial result is returned together
// with ErrHalted. Under Lenient the error is always nil.
func (s *Sequencer) Run(ctx context.Context, sc *Context) (*SuiteResult, error) {
	if s.state != NotStarted {
		return nil, ErrAlreadyRun
	}
	s.state = Running
	defer func() { s.state = Completed }()

	result := newSuiteResult(len(s.specs))
	s.log.Info().Int("checks", len(s.specs)).Stringer("policy", s.policy).Msg("starting validation")

	for i, spec := range s.specs {
		s.index = i
		start := time.Now()
		res := s.execute(ctx, sc, spec)
		result.add(res)

		ev := s.log.Debug()
		if !res.OK() {
			ev = s.log.Warn()
		}
		ev.Str("check", spec.Name).
			Int("ordinal", spec.Ordinal).
			Bool("passed", res.OK()).
			Dur("elapsed", time.Since(start)).
			Str("diagnostic", res.Diagnostic()).
			Msg("check finished")

		if s.reporter != nil {
			if err := s.reporter.Record(spec.Name, res.OK(), report.CategoryFunctional); err != nil {
				s.log.Error().Err(err).Str("check", spec.Name).Msg("recording result failed")
			}
		}
		if s.printer != nil {
			s.printer.PrintResult(res)
		}

		if !res.OK() && s.policy == Strict {
			s.log.Warn().Str("check", spec.Name).Msg("halting after failed check")
			return result, fmt.Errorf("%w: %s", ErrHalted, spec.Name)
		}
	}

	s.log.Info().Int("passed", result.Len()-len(result.Failed())).Int("total", result.Len()).Msg("validation finished")
	return result, nil
}

// execute runs one predicate. Errors and panics become failed results; a
// predicate never aborts the run by itself.
func (s *Sequencer) execute(ctx context.Context, sc *Context, spec Spec) (res check.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("check", spec.Name).Msg("check panicked")
			res = check.New(spec.Name).Raise(fmt.Errorf("%w: %v", errPanicked, r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return check.New(spec.Name).Raise(err)
	}

	out, err := spec.Run(ctx, sc)
	if err != nil {
		return check.New(spec.Name).Raise(err)
	}
	out.Name = spec.Name
	if out.Status == "" {
		out.Status = check.StatusFail
		out.Details = append(out.Details, "check reported no outcome")
	}
	return out
}
