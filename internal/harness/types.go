package harness

import (
	"github.com/roach88/leviathan/internal/engine"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the execution behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Query is the engine result; nil when the execution failed.
	Query *engine.Result `json:"query,omitempty"`

	// ExecutionError is the message of a failed execution.
	ExecutionError string `json:"execution_error,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
