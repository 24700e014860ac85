// Package errs provides structured error types for the nested sampling
// engine. Errors carry a category, a stable code, contextual key/value
// pairs, and an optional wrapped cause.
package errs

import (
	"fmt"
	"strings"
)

// Category classifies an error for consistent handling and display.
type Category string

const (
	// CategoryConfig covers invalid engine construction options: bad N,
	// K >= N, nproc < 1, missing dispatcher endpoint.
	CategoryConfig Category = "config"

	// CategoryPotential covers energy(x) failures or non-finite results.
	CategoryPotential Category = "potential"

	// CategoryInvariant covers walker/engine invariant violations, e.g.
	// a returned replica with e >= cutoff.
	CategoryInvariant Category = "invariant"

	// CategoryTransport covers remote dispatcher RPC failures.
	CategoryTransport Category = "transport"

	// CategoryTimeout covers batch wall-clock budget overruns.
	CategoryTimeout Category = "timeout"

	// CategoryCancellation covers cooperative cancellation.
	CategoryCancellation Category = "cancellation"

	// CategoryInternal covers anything that doesn't fit the above.
	CategoryInternal Category = "internal"
)

// NSError is a structured error with context and an optional cause.
type NSError struct {
	// Code is a unique identifier for this error kind, e.g. "INVARIANT_CUTOFF_VIOLATED".
	Code string

	// Category classifies this error.
	Category Category

	// Message is the primary human-readable description.
	Message string

	// Context carries additional key/value diagnostic detail.
	Context map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *NSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, enabling errors.Is/errors.As.
func (e *NSError) Unwrap() error {
	return e.Cause
}

// Is reports whether e and target share the same Code.
func (e *NSError) Is(target error) bool {
	if t, ok := target.(*NSError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new NSError.
func New(code string, category Category, message string) *NSError {
	return &NSError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key/value pair and returns e for chaining.
func (e *NSError) WithContext(key, value string) *NSError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns e for chaining.
func (e *NSError) WithCause(cause error) *NSError {
	e.Cause = cause
	return e
}

// ContextString renders the context map as "k=v, k=v" for log lines.
func (e *NSError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Context))
	for k, v := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps err as an NSError of the given code/category.
func Wrap(err error, code string, category Category, message string) *NSError {
	return New(code, category, message).WithCause(err)
}

// As attempts to convert err to an *NSError.
func As(err error) (*NSError, bool) {
	if err == nil {
		return nil, false
	}
	if ne, ok := err.(*NSError); ok {
		return ne, true
	}
	return nil, false
}

// IsCategory reports whether err is an NSError of the given category.
func IsCategory(err error, category Category) bool {
	if ne, ok := As(err); ok {
		return ne.Category == category
	}
	return false
}

// -----------------------------------------------------------------------------
// Category constructors
// -----------------------------------------------------------------------------

// Config creates a configuration error.
func Config(code, message string) *NSError { return New(code, CategoryConfig, message) }

// ConfigWrap wraps err as a configuration error.
func ConfigWrap(err error, code, message string) *NSError {
	return Wrap(err, code, CategoryConfig, message)
}

// Potential creates a potential-evaluation error.
func Potential(code, message string) *NSError { return New(code, CategoryPotential, message) }

// PotentialWrap wraps err as a potential-evaluation error.
func PotentialWrap(err error, code, message string) *NSError {
	return Wrap(err, code, CategoryPotential, message)
}

// Invariant creates an invariant-violation error.
func Invariant(code, message string) *NSError { return New(code, CategoryInvariant, message) }

// Transport creates a transport error.
func Transport(code, message string) *NSError { return New(code, CategoryTransport, message) }

// TransportWrap wraps err as a transport error.
func TransportWrap(err error, code, message string) *NSError {
	return Wrap(err, code, CategoryTransport, message)
}

// Timeout creates a timeout error.
func Timeout(code, message string) *NSError { return New(code, CategoryTimeout, message) }

// Cancellation creates a cancellation error.
func Cancellation(code, message string) *NSError { return New(code, CategoryCancellation, message) }

// Internal creates an internal error.
func Internal(code, message string) *NSError { return New(code, CategoryInternal, message) }

// InternalWrap wraps err as an internal error.
func InternalWrap(err error, code, message string) *NSError {
	return Wrap(err, code, CategoryInternal, message)
}
