package domain

// Envelope is the uniform success/failure wrapper returned by every
// data-access call. Provider and network errors never cross this boundary as
// Go errors; they are captured and mapped into a failure envelope.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// OK builds a success envelope carrying the payload and HTTP status.
func OK[T any](data T, status int) Envelope[T] {
	return Envelope[T]{Success: true, Data: data, Status: status}
}

// Fail builds a failure envelope with no HTTP status (transport-level failure).
func Fail[T any](msg string) Envelope[T] {
	return Envelope[T]{Success: false, Error: msg}
}

// FailStatus builds a failure envelope carrying the HTTP status that was
// received (non-2xx responses).
func FailStatus[T any](msg string, status int) Envelope[T] {
	return Envelope[T]{Success: false, Error: msg, Status: status}
}

// Err converts a failure envelope into the data-access error taxonomy.
// Returns nil for success envelopes.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	if e.Status == 404 {
		return &ErrNotFound{Resource: "resource", ID: e.Error}
	}
	return &ErrRequestFailed{Status: e.Status, Message: e.Error}
}
