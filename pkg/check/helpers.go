package check

import "fmt"

// New returns an empty result for the named check.
func New(name string) *Result {
	return &Result{Name: name}
}

// Pass sets the result to OK status.
func (r *Result) Pass() Result {
	r.Status = StatusOK
	return *r
}

// Fail sets the result to failed status with a detail message.
func (r *Result) Fail(detail string) Result {
	r.Status = StatusFail
	r.Details = append(r.Details, detail)
	return *r
}

// Failf sets the result to failed status with a formatted detail message.
func (r *Result) Failf(format string, args ...interface{}) Result {
	return r.Fail(fmt.Sprintf(format, args...))
}

// Raise marks the result as failed because evaluation returned err.
func (r *Result) Raise(err error) Result {
	r.Status = StatusFail
	r.Err = err
	if err != nil {
		r.Details = append(r.Details, err.Error())
	}
	return *r
}

// Expect passes the result when ok holds and fails it with the formatted
// detail otherwise.
func (r *Result) Expect(ok bool, format string, args ...interface{}) Result {
	if ok {
		return r.Pass()
	}
	return r.Failf(format, args...)
}

// AddDetail appends a detail line to the result.
func (r *Result) AddDetail(detail string) *Result {
	r.Details = append(r.Details, detail)
	return r
}

// AddDetailf appends a formatted detail line to the result.
func (r *Result) AddDetailf(format string, args ...interface{}) *Result {
	return r.AddDetail(fmt.Sprintf(format, args...))
}
