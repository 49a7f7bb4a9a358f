package suite

import "github.com/vertti/composecert/pkg/check"

// SuiteResult maps check names to outcomes in execution order. It is
// read-only once the run that produced it has finished.
type SuiteResult struct {
	expected int
	names    []string
	results  map[string]check.Result
}

func newSuiteResult(expected int) *SuiteResult {
	return &SuiteResult{
		expected: expected,
		results:  make(map[string]check.Result, expected),
	}
}

func (r *SuiteResult) add(res check.Result) {
	res.Details = append([]string(nil), res.Details...)
	r.names = append(r.names, res.Name)
	r.results[res.Name] = res
}

// Len returns the number of recorded outcomes.
func (r *SuiteResult) Len() int {
	return len(r.names)
}

// Complete reports whether every registered check has an outcome.
func (r *SuiteResult) Complete() bool {
	return len(r.names) == r.expected
}

// Names returns check names in execution order.
func (r *SuiteResult) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the named outcome.
func (r *SuiteResult) Get(name string) (check.Result, bool) {
	res, ok := r.results[name]
	if ok {
		res.Details = append([]string(nil), res.Details...)
	}
	return res, ok
}

// Results returns the outcomes in execution order.
func (r *SuiteResult) Results() []check.Result {
	out := make([]check.Result, 0, len(r.names))
	for _, name := range r.names {
		res, _ := r.Get(name)
		out = append(out, res)
	}
	return out
}

// Failed returns the failed outcomes in execution order.
func (r *SuiteResult) Failed() []check.Result {
	var out []check.Result
	for _, res := range r.Results() {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether every registered check ran and passed.
func (r *SuiteResult) Passed() bool {
	return r.expected > 0 && r.Complete() && len(r.Failed()) == 0
}
