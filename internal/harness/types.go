package harness

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// SQL is the compiled statement, empty on failure.
	SQL string `json:"sql,omitempty"`

	// ErrorCode is the compile error code, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the full compile error text.
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors lists expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcome renders the result the way golden files store it: the SQL
// statement, or "error: CODE".
func (r *Result) Outcome() string {
	if r.ErrorCode != "" {
		return "error: " + r.ErrorCode + "\n"
	}
	return r.SQL + "\n"
}
