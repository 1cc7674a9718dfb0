package queryz

import "net/url"

// Option makes an inner mapping tolerant of absence. When the inner parse
// fails, the failed attempt's partial consumption is discarded - the
// original, pre-attempt cursor is returned - and the Result is a nil
// pointer, not an error. Inner warnings on success pass through unchanged.
//
// Serializing a nil pointer writes nothing; otherwise the inner mapping
// serializes the pointed-to value.
//
// Restoring the cursor is what makes Option safe inside alternatives: a
// failed attempt leaves no key marked consumed, so sibling branches see
// the input exactly as it was.
type Option[T any] struct {
	inner Mapping[T]
	name  Name
}

// Optional wraps inner so that a parse failure yields success with a nil
// pointer instead of an error.
//
// Example:
//
//	cursor := queryz.Optional("cursor", queryz.String("cursor"))
//	// absent cursor parameter parses to (*string)(nil), no error
func Optional[T any](name Name, inner Mapping[T]) *Option[T] {
	return &Option[T]{name: name, inner: inner}
}

// Parse implements the Mapping interface.
func (o *Option[T]) Parse(c Cursor) (Cursor, Result[*T]) {
	next, r := o.inner.Parse(c)
	if r.IsError() {
		return c, Success[*T](nil)
	}
	return next, MapResult(r, func(v T) *T { return &v })
}

// Serialize implements the Mapping interface.
func (o *Option[T]) Serialize(value *T, out url.Values) url.Values {
	if value == nil {
		return ensureValues(out)
	}
	return o.inner.Serialize(*value, out)
}

// Name returns the name of this modifier.
func (o *Option[T]) Name() Name {
	return o.name
}

// Inner returns the wrapped mapping.
func (o *Option[T]) Inner() Mapping[T] {
	return o.inner
}

// Fallback substitutes a default value when its inner mapping fails to
// parse, restoring the pre-attempt cursor exactly like Option. Serializing
// omits the parameter entirely when the value equals the default, keeping
// round-tripped URLs minimal.
type Fallback[T comparable] struct {
	inner Mapping[T]
	value T
	name  Name
}

// Default wraps inner so that a parse failure yields fallback instead of
// an error.
//
// Example:
//
//	limit := queryz.Default("limit", queryz.Int("limit"), 20)
//	// absent limit parameter parses to 20; serializing 20 writes nothing
func Default[T comparable](name Name, inner Mapping[T], fallback T) *Fallback[T] {
	return &Fallback[T]{name: name, inner: inner, value: fallback}
}

// Parse implements the Mapping interface.
func (f *Fallback[T]) Parse(c Cursor) (Cursor, Result[T]) {
	next, r := f.inner.Parse(c)
	if r.IsError() {
		return c, Success(f.value)
	}
	return next, r
}

// Serialize implements the Mapping interface.
func (f *Fallback[T]) Serialize(value T, out url.Values) url.Values {
	if value == f.value {
		return ensureValues(out)
	}
	return f.inner.Serialize(value, out)
}

// Name returns the name of this modifier.
func (f *Fallback[T]) Name() Name {
	return f.name
}

// Value returns the default substituted on parse failure.
func (f *Fallback[T]) Value() T {
	return f.value
}

// Inner returns the wrapped mapping.
func (f *Fallback[T]) Inner() Mapping[T] {
	return f.inner
}
