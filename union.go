package queryz

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Union connector.
const (
	// Metrics.
	UnionParsedTotal     = metricz.Key("union.parsed.total")
	UnionDispatchedTotal = metricz.Key("union.dispatched.total")
	UnionUnknownTotal    = metricz.Key("union.unknown.total")
	UnionSerializedTotal = metricz.Key("union.serialized.total")

	// Spans.
	UnionParseSpan     = tracez.Key("union.parse")
	UnionSerializeSpan = tracez.Key("union.serialize")

	// Tags.
	UnionTagConnector = tracez.Tag("union.connector")
	UnionTagVariant   = tracez.Tag("union.variant")
	UnionTagSuccess   = tracez.Tag("union.success")
	UnionTagError     = tracez.Tag("union.error")

	// Hook event keys.
	UnionEventDispatched = hookz.Key("union.dispatched")
	UnionEventUnknown    = hookz.Key("union.unknown")
)

// UnionEvent represents a union dispatch event.
// This is emitted via hookz when the discriminant selects a variant or
// names one that was never configured.
type UnionEvent struct {
	Name        Name      // Connector name
	Variant     string    // The discriminant value
	VariantName Name      // Name of the variant mapping (if dispatched)
	Dispatched  bool      // Whether a configured variant was found
	Success     bool      // Whether the variant parsed without error
	Timestamp   time.Time // When the event occurred
}

// Union parses a discriminated variant: a discriminant mapping is parsed
// first, then the variant mapping registered under the discriminant value
// takes over from the advanced cursor. Discriminant warnings carry through
// onto the variant's Result.
//
// A discriminant value with no registered variant is a configuration error,
// not a data error: the parse fails with ErrUnknownVariant listing the
// configured set, and serializing such a value panics, surfacing the broken
// wiring at first use rather than silently dropping output.
//
// Serializing writes the discriminant first, then the selected variant's
// fields.
//
// Example:
//
//	filter := queryz.NewUnion[Filter]("filter",
//	    queryz.Enum("type", "user", "repo"),
//	    func(f Filter) string { return f.Type },
//	)
//	filter.AddVariant("user", userMapping)
//	filter.AddVariant("repo", repoMapping)
//
// # Observability
//
// Metrics:
//   - union.parsed.total: Counter of union parses
//   - union.dispatched.total: Counter of parses that reached a variant
//   - union.unknown.total: Counter of unknown discriminant values
//   - union.serialized.total: Counter of serialize calls
//
// Traces:
//   - union.parse: Span covering discriminant and variant
//   - union.serialize: Span for serialization
//
// Events (via hooks):
//   - union.dispatched: Fired when a variant is selected and parsed
//   - union.unknown: Fired when the discriminant names no variant
type Union[T any] struct {
	tag      Mapping[string]
	tagOf    func(T) string
	variants map[string]Mapping[T]
	name     Name
	mu       sync.RWMutex
	metrics  *metricz.Registry
	tracer   *tracez.Tracer
	hooks    *hookz.Hooks[UnionEvent]
}

// NewUnion creates a new Union connector. The tag mapping parses and
// serializes the discriminant; tagOf extracts the discriminant from a value
// for serialization.
func NewUnion[T any](name Name, tag Mapping[string], tagOf func(T) string) *Union[T] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(UnionParsedTotal)
	metrics.Counter(UnionDispatchedTotal)
	metrics.Counter(UnionUnknownTotal)
	metrics.Counter(UnionSerializedTotal)

	return &Union[T]{
		name:     name,
		tag:      tag,
		tagOf:    tagOf,
		variants: make(map[string]Mapping[T]),
		metrics:  metrics,
		tracer:   tracez.New(),
		hooks:    hookz.New[UnionEvent](),
	}
}

// AddVariant registers or replaces the variant mapping for a discriminant
// value. Returns the union for chaining.
func (u *Union[T]) AddVariant(key string, mapping Mapping[T]) *Union[T] {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.variants[key] = mapping
	return u
}

// RemoveVariant removes the variant for a discriminant value.
func (u *Union[T]) RemoveVariant(key string) *Union[T] {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.variants, key)
	return u
}

// HasVariant checks if a variant exists for the given discriminant value.
func (u *Union[T]) HasVariant(key string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, exists := u.variants[key]
	return exists
}

// Variants returns the configured discriminant values, sorted.
func (u *Union[T]) Variants() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.variantKeys()
}

// variantKeys returns sorted discriminant values. Callers hold u.mu.
func (u *Union[T]) variantKeys() []string {
	keys := make([]string, 0, len(u.variants))
	for key := range u.variants {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Parse implements the Mapping interface.
func (u *Union[T]) Parse(c Cursor) (Cursor, Result[T]) {
	u.mu.RLock()
	tag := u.tag
	variants := make(map[string]Mapping[T], len(u.variants))
	for key, mapping := range u.variants {
		variants[key] = mapping
	}
	allowed := u.variantKeys()
	u.mu.RUnlock()

	u.metrics.Counter(UnionParsedTotal).Inc()

	ctx, span := u.tracer.StartSpan(context.Background(), UnionParseSpan)
	defer span.Finish()
	span.SetTag(UnionTagConnector, string(u.name))

	c, rt := tag.Parse(c)
	if rt.IsError() {
		span.SetTag(UnionTagSuccess, "false")
		err := pathResult(u.name, failureOf[string, T](rt))
		span.SetTag(UnionTagError, err.Err().Error())
		return c, err
	}
	key, _ := rt.Value()
	span.SetTag(UnionTagVariant, key)

	variant, exists := variants[key]
	if !exists {
		u.metrics.Counter(UnionUnknownTotal).Inc()
		span.SetTag(UnionTagSuccess, "false")

		_ = u.hooks.Emit(ctx, UnionEventUnknown, UnionEvent{ //nolint:errcheck
			Name:      u.name,
			Variant:   key,
			Timestamp: time.Now(),
		})

		return c, failWith[T]([]error{&ParseError{
			Err:     ErrUnknownVariant,
			Key:     tag.Name(),
			Value:   key,
			Allowed: allowed,
			Path:    []Name{u.name},
		}}, rt.warnings)
	}

	u.metrics.Counter(UnionDispatchedTotal).Inc()

	c, rv := variant.Parse(c)
	rv = withWarnings(rv, rt.warnings)
	if rv.IsError() {
		rv = pathResult(u.name, rv)
		span.SetTag(UnionTagSuccess, "false")
		span.SetTag(UnionTagError, rv.Err().Error())
	} else {
		span.SetTag(UnionTagSuccess, "true")
	}

	_ = u.hooks.Emit(ctx, UnionEventDispatched, UnionEvent{ //nolint:errcheck
		Name:        u.name,
		Variant:     key,
		VariantName: variant.Name(),
		Dispatched:  true,
		Success:     !rv.IsError(),
		Timestamp:   time.Now(),
	})

	return c, rv
}

// Serialize implements the Mapping interface.
// The discriminant is written first, then the selected variant's fields.
// Serializing a value whose discriminant names no configured variant panics;
// that is broken wiring, not bad data.
func (u *Union[T]) Serialize(value T, out url.Values) url.Values {
	u.mu.RLock()
	tag := u.tag
	tagOf := u.tagOf
	key := tagOf(value)
	variant, exists := u.variants[key]
	u.mu.RUnlock()

	_, span := u.tracer.StartSpan(context.Background(), UnionSerializeSpan)
	defer span.Finish()
	span.SetTag(UnionTagConnector, string(u.name))
	span.SetTag(UnionTagVariant, key)

	u.metrics.Counter(UnionSerializedTotal).Inc()

	if !exists {
		panic(fmt.Sprintf("queryz: union %q has no variant for discriminant %q", u.name, key))
	}

	out = tag.Serialize(key, out)
	return variant.Serialize(value, out)
}

// Name returns the name of this connector.
func (u *Union[T]) Name() Name {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.name
}

// Metrics returns the metrics registry for this connector.
func (u *Union[T]) Metrics() *metricz.Registry {
	return u.metrics
}

// Tracer returns the tracer for this connector.
func (u *Union[T]) Tracer() *tracez.Tracer {
	return u.tracer
}

// Close gracefully shuts down observability components.
func (u *Union[T]) Close() error {
	if u.tracer != nil {
		u.tracer.Close()
	}
	u.hooks.Close()
	return nil
}

// OnDispatched registers a handler for when a variant is selected and
// parsed. The handler is called asynchronously after the variant completes.
func (u *Union[T]) OnDispatched(handler func(context.Context, UnionEvent) error) error {
	_, err := u.hooks.Hook(UnionEventDispatched, handler)
	return err
}

// OnUnknown registers a handler for when the discriminant names no
// configured variant, useful for catching wiring gaps in production.
func (u *Union[T]) OnUnknown(handler func(context.Context, UnionEvent) error) error {
	_, err := u.hooks.Hook(UnionEventUnknown, handler)
	return err
}
