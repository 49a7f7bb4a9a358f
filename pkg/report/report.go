// Package report aggregates named pass/fail outcomes and writes them to
// machine-readable sinks.
package report

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CategoryFunctional is the category every lifecycle check records under.
const CategoryFunctional = "functional"

// ErrDuplicateName is returned when a check name is recorded twice in one run.
var ErrDuplicateName = errors.New("check name already recorded")

// Reporter records a named check's outcome.
type Reporter interface {
	Record(name string, passed bool, category string) error
}

// Record is one recorded outcome.
type Record struct {
	Name     string    `json:"name" yaml:"name"`
	Passed   bool      `json:"passed" yaml:"passed"`
	Category string    `json:"category" yaml:"category"`
	Time     time.Time `json:"time" yaml:"time"`
}

// Collector is an in-memory Reporter that keeps records in insertion order
// and answers suite-level pass/fail. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	runID   string
	started time.Time
	records []Record
	seen    map[string]bool
	now     func() time.Time
}

// NewCollector creates an empty collector with a fresh run ID.
func NewCollector() *Collector {
	return &Collector{
		runID:   uuid.NewString(),
		started: time.Now().UTC(),
		seen:    make(map[string]bool),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record implements Reporter.
func (c *Collector) Record(name string, passed bool, category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	c.seen[name] = true
	c.records = append(c.records, Record{Name: name, Passed: passed, Category: category, Time: c.now()})
	return nil
}

// Records returns a copy of the records in insertion order.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Counts returns the number of passed and failed records.
func (c *Collector) Counts() (passed, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Passed reports whether at least one record exists and none failed.
func (c *Collector) Passed() bool {
	passed, failed := c.Counts()
	return passed > 0 && failed == 0
}

// RunID identifies this run in written reports.
func (c *Collector) RunID() string {
	return c.runID
}
