package modelapi

import (
	"context"
	"errors"
	"fmt"
)

// TransportError covers every way a single upstream completion can fail
// before there is content to parse: network errors, timeouts, non-2xx
// statuses and envelopes without a message.
type TransportError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was a deadline expiring.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

func NewTransportError(provider, message string, cause error) *TransportError {
	return &TransportError{Provider: provider, Message: message, Cause: cause}
}

// AsTransportError returns err as a *TransportError, wrapping it when a
// completer returned something else.
func AsTransportError(provider string, err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return NewTransportError(provider, "completion failed", err)
}
