package harness

// TraceEvent records one applied step and the entity state it left behind.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Op        string `json:"op"`
	Field     string `json:"field,omitempty"`
	Arg       string `json:"arg,omitempty"`
	Returns   string `json:"returns,omitempty"`
	Error     string `json:"error,omitempty"`
	DataState string `json:"data_state"`
	EditState string `json:"edit_state"`
	Version   int    `json:"version"`
	Depth     int    `json:"depth"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Fields is the final formatted value of every field, keyed by id.
	Fields map[string]string `json:"fields,omitempty"`

	// Updates counts field updates published during the run.
	Updates int `json:"updates"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Fields: make(map[string]string),
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
