package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ValidationError is a caller mistake: bad body, bad or expired captcha,
// unknown loan category or sheet. Its message is returned verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DetailedError is implemented by upstream client errors that carry the raw
// response body.
type DetailedError interface {
	error
	Details() string
}

// UpstreamError wraps a failed call to the lead store or identity checker.
type UpstreamError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: upstream timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Details returns the raw upstream body when the wrapped error has one.
func (e *UpstreamError) Details() string {
	var d DetailedError
	if errors.As(e.Err, &d) {
		return d.Details()
	}
	return ""
}

// Upstream wraps err as an UpstreamError, classifying deadline and network
// timeouts. A nil err stays nil and an existing UpstreamError is returned as is.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err, Timeout: isTimeout(err)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
