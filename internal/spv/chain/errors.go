package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a data source response that failed boundary validation.
	ErrMalformedResponse = errors.New("malformed data source response")
	// ErrUntrustedHeader marks a header rejected by the HeaderTrustPolicy.
	ErrUntrustedHeader = errors.New("untrusted header")
)

// AdapterError is a data source I/O failure.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// WrapAdapterError wraps err as an AdapterError unless it is nil or already one.
func WrapAdapterError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Err: err}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
