package harness

import (
	"github.com/roach88/firedoc/internal/transform"
)

// Step operations recorded in the trace.
const (
	OpPut    = "put"
	OpSet    = "set"
	OpMerge  = "merge"
	OpUpdate = "update"
	OpDelete = "delete"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq        int64                      `json:"seq"`
	Op         string                     `json:"op"`
	Document   string                     `json:"document"`
	Revision   string                     `json:"revision,omitempty"`
	Transforms []transform.FieldTransform `json:"transforms,omitempty"`
	Error      string                     `json:"error,omitempty"` // status code of a failed step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every setup and flow step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends event to the trace, numbering it.
func (r *Result) AddEvent(event TraceEvent) {
	event.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, event)
}
