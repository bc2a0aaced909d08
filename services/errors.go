package services

// UpstreamError reports any failure talking to or interpreting the completion
// backend. It is never retried.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "LLM error: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
