package queryz

import "net/url"

// Adapter wraps an inner Mapping with a bidirectional transform, created by
// Convert or Refine. The parse side post-processes values the inner mapping
// produced; the serialize side pre-processes values before delegating to the
// inner mapping. The two transforms must be exact inverses on the domain of
// valid values for the round-trip law to hold.
type Adapter[T, U any] struct {
	inner     Mapping[T]
	parse     func(T) Result[U]
	serialize func(U) T
	name      Name
}

// Convert creates an Adapter from a pure bidirectional transform that
// cannot fail. Use it when the two representations correspond one-to-one,
// like mapping an enum string onto a domain type.
//
// Example:
//
//	level := queryz.Convert("level", queryz.Int("level"),
//	    func(n int) LogLevel { return LogLevel(n) },
//	    func(l LogLevel) int { return int(l) },
//	)
//
// If the parse side needs to validate, use Refine instead.
func Convert[T, U any](name Name, inner Mapping[T], parse func(T) U, serialize func(U) T) Adapter[T, U] {
	return Adapter[T, U]{
		name:      name,
		inner:     inner,
		parse:     func(value T) Result[U] { return Success(parse(value)) },
		serialize: serialize,
	}
}

// Refine creates an Adapter whose parse side may itself fail or warn.
// Use it to layer validation on top of a primitive - numeric range checks,
// identifier lookups, anything that narrows the inner domain.
//
// Example:
//
//	port := queryz.Refine("port", queryz.Int("port"),
//	    func(n int) queryz.Result[int] {
//	        if n < 1 || n > 65535 {
//	            return queryz.Failure[int](fmt.Errorf("port %d out of range", n))
//	        }
//	        return queryz.Success(n)
//	    },
//	    func(n int) int { return n },
//	)
//
// A refinement failure does not restore the cursor; the inner mapping's
// consumption stands. Wrap with Optional or Default to backtrack.
func Refine[T, U any](name Name, inner Mapping[T], parse func(T) Result[U], serialize func(U) T) Adapter[T, U] {
	return Adapter[T, U]{
		name:      name,
		inner:     inner,
		parse:     parse,
		serialize: serialize,
	}
}

// Parse implements the Mapping interface.
func (a Adapter[T, U]) Parse(c Cursor) (Cursor, Result[U]) {
	c, r := a.inner.Parse(c)
	return c, BindResult(r, a.parse)
}

// Serialize implements the Mapping interface.
func (a Adapter[T, U]) Serialize(value U, out url.Values) url.Values {
	return a.inner.Serialize(a.serialize(value), out)
}

// Name returns the name of this adapter.
func (a Adapter[T, U]) Name() Name {
	return a.name
}

// Inner returns the wrapped mapping.
func (a Adapter[T, U]) Inner() Mapping[T] {
	return a.inner
}

// Constant creates a Param that always succeeds with value, consumes no
// input, and emits no output. It is the identity mapping, useful as a fixed
// field inside an Object or as the seed of a composition.
func Constant[T any](name Name, value T) Param[T] {
	return Param[T]{
		name: name,
		parse: func(c Cursor) (Cursor, Result[T]) {
			return c, Success(value)
		},
		serialize: func(_ T, out url.Values) url.Values {
			return ensureValues(out)
		},
	}
}
