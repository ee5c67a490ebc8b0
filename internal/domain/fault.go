package domain

import (
	"errors"
	"fmt"
)

// FaultKind is the closed set of failure categories surfaced by I/O operations
type FaultKind string

const (
	// FaultValidation is malformed or incomplete input; the operation never started
	FaultValidation FaultKind = "validation"

	// FaultTransport is a timeout, connection failure or non-2xx response
	FaultTransport FaultKind = "transport"

	// FaultRetryable is a 5xx from the upload transport, retried before surfacing
	FaultRetryable FaultKind = "retryable-remote"

	// FaultStructural is an unexpected response shape
	FaultStructural FaultKind = "structural"

	// FaultAuth is a missing, expired or insufficient credential
	FaultAuth FaultKind = "auth"

	// FaultTooling is an unavailable or failing external tool
	FaultTooling FaultKind = "tooling-unavailable"
)

// Fault is a categorized failure. Callers match on Kind instead of parsing
// message text.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault wraps err with a failure category and the operation name.
func NewFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Faultf builds a categorized failure from a format string.
func Faultf(kind FaultKind, op, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure category, or "" for uncategorized errors.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure category.
func IsKind(err error, kind FaultKind) bool {
	return KindOf(err) == kind
}
