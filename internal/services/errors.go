package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/dailycast/internal/shared"
)

// Outcome classifies the result of a remote operation.
type Outcome int

const (
	Success Outcome = iota
	// AuthRejected means the server refused the session credential.
	AuthRejected
	// ValidationRejected means the server refused the operation's input.
	ValidationRejected
	// TransportFailure means the server could not be reached or answered unusably. Callers may retry.
	TransportFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AuthRejected:
		return "auth_rejected"
	case ValidationRejected:
		return "validation_rejected"
	case TransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Sentinel returns the shared error for the outcome, or nil for [Success].
func (o Outcome) Sentinel() error {
	switch o {
	case AuthRejected:
		return shared.ErrAuthRejected
	case ValidationRejected:
		return shared.ErrValidationRejected
	case TransportFailure:
		return shared.ErrTransportFailure
	default:
		return nil
	}
}

// GatewayError is a failed remote operation.
type GatewayError struct {
	Outcome   Outcome
	Operation string
	Status    int
	Messages  []string
	// Fields maps an input name to the server's message about it.
	Fields map[string]string
	Err    error
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	if sentinel := e.Outcome.Sentinel(); sentinel != nil {
		b.WriteString(sentinel.Error())
	} else {
		b.WriteString(e.Outcome.String())
	}

	if msg := e.Message(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	return b.String()
}

// Unwrap exposes the outcome's sentinel and the underlying cause to [errors.Is].
func (e *GatewayError) Unwrap() []error {
	var errs []error
	if sentinel := e.Outcome.Sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message joins the server's messages, skipping blanks.
func (e *GatewayError) Message() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		if m = strings.TrimSpace(m); m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, "; ")
}

// OutcomeOf classifies any error returned by the gateway or built on its sentinels.
//
// nil is [Success]. Errors the gateway did not produce count as [TransportFailure].
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Success
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Outcome
	}

	switch {
	case errors.Is(err, shared.ErrAuthRejected):
		return AuthRejected
	case errors.Is(err, shared.ErrValidationRejected):
		return ValidationRejected
	default:
		return TransportFailure
	}
}

// FieldErrors returns the per-input messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Fields
	}
	return nil
}
