package harness

import (
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Output is the formatted assembly. Empty when compilation failed.
	Output string `json:"output,omitempty"`

	// Instructions is the emitted instruction list.
	Instructions []ir.Instruction `json:"instructions,omitempty"`

	// Calls is the helper call trace recorded during compilation.
	Calls []testutil.Call `json:"-"`

	// ErrorCode is the compile error code, if compilation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Natives returns the natives the script called, in order.
func (r *Result) Natives() []string {
	var names []string
	for _, c := range r.Calls {
		if c.Op == "call-native" && len(c.Args) > 0 {
			names = append(names, c.Args[0])
		}
	}
	return names
}

// Lines returns the recorded helper calls rendered as strings.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = c.String()
	}
	return lines
}
