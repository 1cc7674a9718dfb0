package queryz

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// AmbiguousChoiceWarning is appended by EitherResult when both alternatives
// produce a value. The choice of the first value is arbitrary and the warning
// text is stable so callers can assert on the ambiguity itself rather than on
// a specific winner.
const AmbiguousChoiceWarning = "both alternatives matched; the first value was chosen arbitrarily"

// Result is the three-state outcome of a parse: success, warning, or error.
// Success and warning states carry a value; the error state never does.
// Warnings accumulate across composition and never stop downstream
// processing. Once a Result reaches the error state, composition
// short-circuits and only diagnostics flow onward.
//
// The zero value is success with the zero value of T.
type Result[T any] struct {
	value    T
	warnings []string
	errs     []error
}

// Success returns a Result carrying value with no diagnostics.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Warning returns a Result carrying value alongside warning messages.
// With no messages it is equivalent to Success.
func Warning[T any](value T, warnings ...string) Result[T] {
	return Result[T]{value: value, warnings: warnings}
}

// Failure returns a Result in the error state. At least one error is
// required; a Failure with no errors would be indistinguishable from
// success.
func Failure[T any](errs ...error) Result[T] {
	if len(errs) == 0 {
		panic("queryz: Failure requires at least one error")
	}
	return Result[T]{errs: errs}
}

// failWith builds an error-state Result that retains warnings gathered
// before the failure.
func failWith[T any](errs []error, warnings []string) Result[T] {
	return Result[T]{errs: errs, warnings: warnings}
}

// failureOf converts an error-state Result to a different payload type.
func failureOf[T, U any](r Result[T]) Result[U] {
	return failWith[U](slices.Clone(r.errs), slices.Clone(r.warnings))
}

// IsSuccess reports whether the Result carries a value with no diagnostics.
func (r Result[T]) IsSuccess() bool {
	return len(r.errs) == 0 && len(r.warnings) == 0
}

// IsWarning reports whether the Result carries a value alongside warnings.
func (r Result[T]) IsWarning() bool {
	return len(r.errs) == 0 && len(r.warnings) > 0
}

// IsError reports whether the Result is in the error state.
func (r Result[T]) IsError() bool {
	return len(r.errs) > 0
}

// Value returns the payload and true for success and warning states,
// or the zero value and false for the error state.
func (r Result[T]) Value() (T, bool) {
	if len(r.errs) > 0 {
		var zero T
		return zero, false
	}
	return r.value, true
}

// OrElse returns the payload, or fallback for the error state.
func (r Result[T]) OrElse(fallback T) T {
	if len(r.errs) > 0 {
		return fallback
	}
	return r.value
}

// Warnings returns a copy of the accumulated warning messages.
func (r Result[T]) Warnings() []string {
	return slices.Clone(r.warnings)
}

// Errors returns a copy of the accumulated errors. Empty unless the
// Result is in the error state.
func (r Result[T]) Errors() []error {
	return slices.Clone(r.errs)
}

// Err returns the accumulated errors joined into one, or nil when the
// Result carries a value. Every contributing error message is preserved.
func (r Result[T]) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return errors.Join(r.errs...)
}

// String renders the Result for debugging.
func (r Result[T]) String() string {
	switch {
	case len(r.errs) > 0:
		msgs := make([]string, len(r.errs))
		for i, err := range r.errs {
			msgs[i] = err.Error()
		}
		return fmt.Sprintf("error(%s)", strings.Join(msgs, "; "))
	case len(r.warnings) > 0:
		return fmt.Sprintf("warning(%v; %s)", r.value, strings.Join(r.warnings, "; "))
	default:
		return fmt.Sprintf("success(%v)", r.value)
	}
}

// withWarnings prepends leading warnings to r, preserving its state.
func withWarnings[T any](r Result[T], leading []string) Result[T] {
	if len(leading) == 0 {
		return r
	}
	r.warnings = append(slices.Clone(leading), r.warnings...)
	return r
}

// pathResult prepends name to the error path of every error in r.
// Results carrying a value pass through unchanged.
func pathResult[T any](name Name, r Result[T]) Result[T] {
	if len(r.errs) == 0 {
		return r
	}
	r.errs = prependPath(name, r.errs)
	return r
}

// MapResult applies fn to the payload of a success or warning Result and
// propagates the error state unchanged.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	if len(r.errs) > 0 {
		return failureOf[T, U](r)
	}
	return Result[U]{value: fn(r.value), warnings: slices.Clone(r.warnings)}
}

// BindResult applies fn to the payload and flattens the nested Result.
// An outer error propagates unchanged. Otherwise the outer warnings come
// first, followed by whatever the inner Result produced: an inner error
// collapses the whole Result to the error state while keeping the outer
// warnings, and inner warnings merge after the outer ones.
func BindResult[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if len(r.errs) > 0 {
		return failureOf[T, U](r)
	}
	inner := fn(r.value)
	return withWarnings(inner, r.warnings)
}

// EitherResult combines two alternative Results. If both fail, the combined
// error lists both branches' errors behind ErrNoAlternative. If exactly one
// carries a value, it is returned as-is. If both carry values, the first
// value wins but the Result is demoted to a warning carrying
// AmbiguousChoiceWarning; the asymmetry is deliberate ambiguity signaling.
func EitherResult[T any](a, b Result[T]) Result[T] {
	aFailed := len(a.errs) > 0
	bFailed := len(b.errs) > 0
	switch {
	case aFailed && bFailed:
		errs := make([]error, 0, len(a.errs)+len(b.errs)+1)
		errs = append(errs, ErrNoAlternative)
		errs = append(errs, a.errs...)
		errs = append(errs, b.errs...)
		warnings := append(slices.Clone(a.warnings), b.warnings...)
		return failWith[T](errs, warnings)
	case aFailed:
		return b
	case bFailed:
		return a
	default:
		warnings := append(slices.Clone(a.warnings), b.warnings...)
		warnings = append(warnings, AmbiguousChoiceWarning)
		return Result[T]{value: a.value, warnings: warnings}
	}
}

// Map2 lifts a binary function over two Results. If either operand is in
// the error state the errors concatenate in operand order, so sibling
// failures are all surfaced rather than just the first. Warnings from all
// operands merge in order regardless of outcome.
func Map2[A, B, C any](a Result[A], b Result[B], fn func(A, B) C) Result[C] {
	warnings := append(slices.Clone(a.warnings), b.warnings...)
	if len(a.errs) > 0 || len(b.errs) > 0 {
		errs := make([]error, 0, len(a.errs)+len(b.errs))
		errs = append(errs, a.errs...)
		errs = append(errs, b.errs...)
		return failWith[C](errs, warnings)
	}
	return Result[C]{value: fn(a.value, b.value), warnings: warnings}
}

// Map3 lifts a ternary function over three Results with the same error
// aggregation and warning merge rules as Map2.
func Map3[A, B, C, D any](a Result[A], b Result[B], c Result[C], fn func(A, B, C) D) Result[D] {
	warnings := append(append(slices.Clone(a.warnings), b.warnings...), c.warnings...)
	if len(a.errs) > 0 || len(b.errs) > 0 || len(c.errs) > 0 {
		errs := make([]error, 0, len(a.errs)+len(b.errs)+len(c.errs))
		errs = append(errs, a.errs...)
		errs = append(errs, b.errs...)
		errs = append(errs, c.errs...)
		return failWith[D](errs, warnings)
	}
	return Result[D]{value: fn(a.value, b.value, c.value), warnings: warnings}
}
