package cdn

import "fmt"

// RequestError indicates the endpoint was unreachable, timed out, or answered
// with a non-success status. Callers may retry with backoff; it is never fatal
// to the application.
type RequestError struct {
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cdn request %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("cdn request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError indicates the endpoint answered with malformed JSON. The sync
// cycle is aborted and the previous item set retained.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cdn decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError indicates a syntactically valid payload that violates the
// roadmap invariants. The whole payload is rejected rather than accepting a
// partially valid set.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("roadmap payload rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("roadmap payload rejected: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }
