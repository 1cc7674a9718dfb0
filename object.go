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

// Observability constants for the Object connector.
const (
	// Metrics.
	ObjectParsedTotal     = metricz.Key("object.parsed.total")
	ObjectSuccessesTotal  = metricz.Key("object.successes.total")
	ObjectFailuresTotal   = metricz.Key("object.failures.total")
	ObjectSerializedTotal = metricz.Key("object.serialized.total")
	ObjectFieldsTotal     = metricz.Key("object.fields.total")

	// Spans.
	ObjectParseSpan     = tracez.Key("object.parse")
	ObjectFieldSpan     = tracez.Key("object.field")
	ObjectSerializeSpan = tracez.Key("object.serialize")

	// Tags.
	ObjectTagFieldCount  = tracez.Tag("object.field_count")
	ObjectTagFieldName   = tracez.Tag("object.field_name")
	ObjectTagFieldNumber = tracez.Tag("object.field_number")
	ObjectTagSuccess     = tracez.Tag("object.success")
	ObjectTagError       = tracez.Tag("object.error")

	// Hook event keys.
	ObjectEventFieldComplete = hookz.Key("object.field_complete")
	ObjectEventParsed        = hookz.Key("object.parsed")
)

// ObjectEvent represents an object parsing event.
// This is emitted via hookz as individual fields complete and when the
// whole object has been parsed, providing visibility into field-level
// progress and aggregate outcomes.
type ObjectEvent struct {
	Name        Name      // Connector name
	FieldName   Name      // Name of the field mapping (for field_complete)
	FieldNumber int       // Current field number, 1-based (for field_complete)
	TotalFields int       // Total number of fields
	Success     bool      // Whether the field or object parsed without error
	Warnings    int       // Warnings accumulated so far
	Errors      int       // Errors accumulated so far
	Timestamp   time.Time // When the event occurred
}

// Field binds one field of an aggregate value O to the Mapping that parses
// and serializes it. Fields are created with Bind; the parse and serialize
// methods are intentionally unexported so every field goes through the
// accessor pair, keeping the two directions consistent.
type Field[O any] interface {
	// parseField consumes the field's parameters and returns a setter that
	// installs the parsed value into the aggregate.
	parseField(Cursor) (Cursor, Result[func(O) O])
	// serializeField reads the field from the aggregate and appends its
	// parameters to out.
	serializeField(O, url.Values) url.Values
	Name() Name
}

// Bind creates a Field from a mapping and an accessor pair: get reads the
// field from the aggregate for serialization, set installs a parsed value
// into the aggregate. The pair must address the same field for the
// round-trip law to hold.
//
// Example:
//
//	queryz.Bind(queryz.Int("page"),
//	    func(s Search) int { return s.Page },
//	    func(s Search, p int) Search { s.Page = p; return s },
//	)
func Bind[O, F any](mapping Mapping[F], get func(O) F, set func(O, F) O) Field[O] {
	return binding[O, F]{mapping: mapping, get: get, set: set}
}

type binding[O, F any] struct {
	mapping Mapping[F]
	get     func(O) F
	set     func(O, F) O
}

func (b binding[O, F]) Name() Name {
	return b.mapping.Name()
}

func (b binding[O, F]) parseField(c Cursor) (Cursor, Result[func(O) O]) {
	c, r := b.mapping.Parse(c)
	return c, MapResult(r, func(value F) func(O) O {
		return func(o O) O { return b.set(o, value) }
	})
}

func (b binding[O, F]) serializeField(o O, out url.Values) url.Values {
	return b.mapping.Serialize(b.get(o), out)
}

// Object aggregates named field mappings into a mapping for a compound
// value of type O. It maintains an ordered list of fields that are parsed
// and serialized in registration order.
//
// Parsing threads the cursor from field to field and keeps going past field
// errors: an error in any field poisons the object's Result, but every
// sibling failure actually attempted is collected, so a caller sees all
// missing parameters at once instead of one per request. Field warnings
// merge in field order.
//
// Serializing writes fields in the same fixed order regardless of how the
// value was built, guaranteeing deterministic output independent of map
// iteration order.
//
// Key features:
//   - Thread-safe for concurrent access
//   - Dynamic modification of the field list
//   - Named fields for debugging and error paths
//   - Complete error aggregation across fields
//
// Example:
//
//	search := queryz.NewObject[Search]("search",
//	    queryz.Bind(queryz.String("q"), getQuery, setQuery),
//	    queryz.Bind(queryz.Default("page", queryz.Int("page"), 1), getPage, setPage),
//	)
//
// # Observability
//
// Metrics:
//   - object.parsed.total: Counter of object parses
//   - object.successes.total: Counter of parses with no field errors
//   - object.failures.total: Counter of parses with at least one field error
//   - object.serialized.total: Counter of serialize calls
//   - object.fields.total: Gauge of the registered field count
//
// Traces:
//   - object.parse: Parent span for the whole object
//   - object.field: Child span for each field
//   - object.serialize: Span for serialization
//
// Events (via hooks):
//   - object.field_complete: Fired as each field completes
//   - object.parsed: Fired when the whole object finishes
//
// Example with hooks:
//
//	search.OnFieldComplete(func(ctx context.Context, event queryz.ObjectEvent) error {
//	    if !event.Success {
//	        log.Printf("field %s failed (%d/%d)", event.FieldName, event.FieldNumber, event.TotalFields)
//	    }
//	    return nil
//	})
type Object[O any] struct {
	name    Name
	fields  []Field[O]
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ObjectEvent]
}

// NewObject creates a new Object connector with optional initial fields.
// Additional fields can be added with Register; parse and serialize order
// follows registration order.
func NewObject[O any](name Name, fields ...Field[O]) *Object[O] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(ObjectParsedTotal)
	metrics.Counter(ObjectSuccessesTotal)
	metrics.Counter(ObjectFailuresTotal)
	metrics.Counter(ObjectSerializedTotal)
	metrics.Gauge(ObjectFieldsTotal)

	return &Object[O]{
		name:    name,
		fields:  slices.Clone(fields),
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[ObjectEvent](),
	}
}

// Register appends fields to this Object. Fields are parsed and serialized
// in the order they are registered. Thread-safe.
func (o *Object[O]) Register(fields ...Field[O]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields = append(o.fields, fields...)
}

// Parse implements the Mapping interface.
// Parsing continues through field errors so the aggregate error collection
// names every failing field, not just the first.
func (o *Object[O]) Parse(c Cursor) (Cursor, Result[O]) {
	o.mu.RLock()
	fields := make([]Field[O], len(o.fields))
	copy(fields, o.fields)
	o.mu.RUnlock()

	o.metrics.Counter(ObjectParsedTotal).Inc()
	o.metrics.Gauge(ObjectFieldsTotal).Set(float64(len(fields)))

	ctx, span := o.tracer.StartSpan(context.Background(), ObjectParseSpan)
	span.SetTag(ObjectTagFieldCount, fmt.Sprintf("%d", len(fields)))

	var zero O
	acc := Success(zero)

	for i, field := range fields {
		_, fieldSpan := o.tracer.StartSpan(ctx, ObjectFieldSpan)
		fieldSpan.SetTag(ObjectTagFieldNumber, fmt.Sprintf("%d", i+1))
		fieldSpan.SetTag(ObjectTagFieldName, string(field.Name()))

		next, rf := field.parseField(c)
		fieldSpan.Finish()
		c = next

		acc = Map2(acc, rf, func(value O, apply func(O) O) O {
			return apply(value)
		})

		_ = o.hooks.Emit(ctx, ObjectEventFieldComplete, ObjectEvent{ //nolint:errcheck
			Name:        o.name,
			FieldName:   field.Name(),
			FieldNumber: i + 1,
			TotalFields: len(fields),
			Success:     !rf.IsError(),
			Warnings:    len(acc.warnings),
			Errors:      len(acc.errs),
			Timestamp:   time.Now(),
		})
	}

	if acc.IsError() {
		acc = pathResult(o.name, acc)
		span.SetTag(ObjectTagSuccess, "false")
		span.SetTag(ObjectTagError, acc.Err().Error())
		o.metrics.Counter(ObjectFailuresTotal).Inc()
	} else {
		span.SetTag(ObjectTagSuccess, "true")
		o.metrics.Counter(ObjectSuccessesTotal).Inc()
	}
	span.Finish()

	_ = o.hooks.Emit(ctx, ObjectEventParsed, ObjectEvent{ //nolint:errcheck
		Name:        o.name,
		TotalFields: len(fields),
		Success:     !acc.IsError(),
		Warnings:    len(acc.warnings),
		Errors:      len(acc.errs),
		Timestamp:   time.Now(),
	})

	return c, acc
}

// Serialize implements the Mapping interface.
// Fields are written in registration order for deterministic output.
func (o *Object[O]) Serialize(value O, out url.Values) url.Values {
	o.mu.RLock()
	fields := make([]Field[O], len(o.fields))
	copy(fields, o.fields)
	o.mu.RUnlock()

	_, span := o.tracer.StartSpan(context.Background(), ObjectSerializeSpan)
	defer span.Finish()
	span.SetTag(ObjectTagFieldCount, fmt.Sprintf("%d", len(fields)))

	o.metrics.Counter(ObjectSerializedTotal).Inc()

	out = ensureValues(out)
	for _, field := range fields {
		out = field.serializeField(value, out)
	}
	return out
}

// Len returns the number of registered fields.
func (o *Object[O]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.fields)
}

// Clear removes all fields from the Object.
func (o *Object[O]) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields = o.fields[:0]
}

// Names returns the names of all fields in order.
func (o *Object[O]) Names() []Name {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]Name, len(o.fields))
	for i, field := range o.fields {
		names[i] = field.Name()
	}
	return names
}

// Remove removes the first field with the specified name.
func (o *Object[O]) Remove(name Name) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, field := range o.fields {
		if field.Name() == name {
			o.fields = slices.Delete(o.fields, i, i+1)
			return nil
		}
	}

	return fmt.Errorf("field %q not found", name)
}

// Replace replaces the first field with the specified name.
func (o *Object[O]) Replace(name Name, field Field[O]) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, existing := range o.fields {
		if existing.Name() == name {
			o.fields[i] = field
			return nil
		}
	}

	return fmt.Errorf("field %q not found", name)
}

// Name returns the name of this connector.
func (o *Object[O]) Name() Name {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.name
}

// Metrics returns the metrics registry for this connector.
func (o *Object[O]) Metrics() *metricz.Registry {
	return o.metrics
}

// Tracer returns the tracer for this connector.
func (o *Object[O]) Tracer() *tracez.Tracer {
	return o.tracer
}

// Close gracefully shuts down observability components.
func (o *Object[O]) Close() error {
	if o.tracer != nil {
		o.tracer.Close()
	}
	o.hooks.Close()
	return nil
}

// OnFieldComplete registers a handler for when an individual field
// completes. The handler is called asynchronously each time a field
// finishes, whether it succeeds or fails.
func (o *Object[O]) OnFieldComplete(handler func(context.Context, ObjectEvent) error) error {
	_, err := o.hooks.Hook(ObjectEventFieldComplete, handler)
	return err
}

// OnParsed registers a handler for when the whole object finishes parsing.
// The event includes aggregate warning and error counts.
func (o *Object[O]) OnParsed(handler func(context.Context, ObjectEvent) error) error {
	_, err := o.hooks.Hook(ObjectEventParsed, handler)
	return err
}
