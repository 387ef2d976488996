package harness

// CaseResult is what one query produced.
type CaseResult struct {
	Query string `json:"query"`

	// Print is the canonical form. Empty when the query failed to parse.
	Print string `json:"print,omitempty"`

	// Error is the first failure: parse, translation or evaluation.
	Error string `json:"error,omitempty"`

	// ErrorKind and ErrorCode are set for parse errors.
	ErrorKind string `json:"error_kind,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// Matched is the ids selected by the in-memory evaluator.
	Matched []string `json:"matched,omitempty"`

	// Stored is the ids returned by the SQLite store, or nil when the
	// scenario has no stored expectations.
	Stored []string `json:"stored,omitempty"`

	Portable bool     `json:"portable"`
	Warnings []string `json:"warnings,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains failed expectations.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
