package event

// Result pairs a handler with the outcome of one invocation, so concurrent
// invocation of many handlers stays attributable. Exactly one of Value and
// Err is meaningful.
type Result struct {
	Handler Handler
	Value   any
	Err     error
}

// Failed reports whether the invocation ended in a captured error.
func (r Result) Failed() bool { return r.Err != nil }

// PriorityResults groups the results of one priority bucket.
type PriorityResults struct {
	Priority int
	Results  []Result
}
