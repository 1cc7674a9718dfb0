package queryz

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrMissingParameter indicates a required parameter was absent from the
	// input, or that every occurrence of it had already been consumed.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidFormat indicates a value failed a primitive's format check,
	// such as a non-numeric string given to Int.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrLossyFormat indicates a value was readable but differs from the
	// canonical serialized form. It surfaces as a warning, never an error.
	ErrLossyFormat = errors.New("non-canonical value")

	// ErrMembership indicates an enum value was not in the allowed set.
	ErrMembership = errors.New("value not allowed")

	// ErrUnknownVariant indicates a union discriminant named a variant that
	// was never configured. This is a configuration error, not a data error.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrUnconsumedInput indicates a parameter had occurrences left unread
	// after a top-level parse. It surfaces as a warning, never an error.
	ErrUnconsumedInput = errors.New("unconsumed input")

	// ErrBadEscape indicates a value contained a malformed percent escape.
	ErrBadEscape = errors.New("invalid percent escape")

	// ErrNoAlternative indicates every branch of an Either failed.
	ErrNoAlternative = errors.New("all alternatives failed")

	// ErrPanicked indicates a mapping panicked during a Codec operation.
	ErrPanicked = errors.New("panic during processing")
)

// ParseError provides rich context about a parse failure.
// It wraps a sentinel error with the parameter key, the offending value,
// and the path of combinator names leading to the failure.
type ParseError struct {
	Err     error    // Underlying sentinel error (ErrMissingParameter, etc.)
	Key     string   // Parameter key that triggered the error, if any
	Value   string   // Raw value that failed, if any
	Detail  string   // Additional human-readable context
	Allowed []string // Allowed values for membership errors
	Path    []Name   // Combinator names from outermost to innermost
}

// Error implements the error interface, providing a detailed error message.
func (e *ParseError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(": ")
	}
	if e.Key != "" {
		fmt.Fprintf(&b, "parameter %q: ", e.Key)
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %q)", e.Value)
	}
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, ", allowed: %s", strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

// Unwrap returns the underlying sentinel, supporting errors.Is checks.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// prependPath prepends name to the path of every ParseError in errs.
// Errors of other types are wrapped so the path is never lost.
func prependPath(name Name, errs []error) []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = append([]Name{name}, pe.Path...)
			out[i] = pe
			continue
		}
		out[i] = &ParseError{Err: err, Path: []Name{name}}
	}
	return out
}
