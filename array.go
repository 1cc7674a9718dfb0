package queryz

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Array connector.
const (
	// Metrics.
	ArrayParsedTotal     = metricz.Key("array.parsed.total")
	ArraySerializedTotal = metricz.Key("array.serialized.total")
	ArrayLengthLast      = metricz.Key("array.length.last")

	// Spans.
	ArrayParseSpan     = tracez.Key("array.parse")
	ArraySerializeSpan = tracez.Key("array.serialize")

	// Tags.
	ArrayTagConnector = tracez.Tag("array.connector")
	ArrayTagLength    = tracez.Tag("array.length")

	// Hook event keys.
	ArrayEventParsed = hookz.Key("array.parsed")
)

// ArrayEvent represents an array scan event.
// This is emitted via hookz when a greedy scan finishes, providing
// visibility into how many elements were collected and why the scan ended.
type ArrayEvent struct {
	Name      Name      // Connector name
	Length    int       // Number of elements collected
	Warnings  int       // Warnings accumulated across elements
	Stopped   bool      // Whether a failing element attempt ended the scan
	Timestamp time.Time // When the event occurred
}

// Array parses a repeated element mapping greedily: the element is invoked
// against the current cursor until an attempt fails, and the cursor from
// just before that failing attempt is returned along with every element
// collected so far. An empty sequence is a valid success, never an error;
// element warnings accumulate onto the sequence Result.
//
// Because the cursor is restored to the pre-failure position, occurrences
// the failing attempt would have consumed remain unread and are reported by
// the top-level parse as leftovers.
//
// Serializing writes elements in sequence order through independent calls
// to the element mapping, threading the growing collection.
//
// The scan is an explicit loop, not recursion, so pathological repeated-key
// inputs cannot exhaust the stack.
//
// Example:
//
//	tags := queryz.NewArray("tags", queryz.Int("tag"))
//	// tag=1&tag=2&tag=x parses to [1, 2], leaving "x" unconsumed
//
// # Observability
//
// Metrics:
//   - array.parsed.total: Counter of array scans
//   - array.serialized.total: Counter of serialize calls
//   - array.length.last: Gauge of the most recent element count
//
// Traces:
//   - array.parse: Span for the greedy scan
//   - array.serialize: Span for serialization
//
// Events (via hooks):
//   - array.parsed: Fired when a scan finishes
type Array[T any] struct {
	elem    Mapping[T]
	name    Name
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ArrayEvent]
}

// NewArray creates a new Array connector around an element mapping.
func NewArray[T any](name Name, elem Mapping[T]) *Array[T] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(ArrayParsedTotal)
	metrics.Counter(ArraySerializedTotal)
	metrics.Gauge(ArrayLengthLast)

	return &Array[T]{
		name:    name,
		elem:    elem,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[ArrayEvent](),
	}
}

// Parse implements the Mapping interface.
func (a *Array[T]) Parse(c Cursor) (Cursor, Result[[]T]) {
	a.mu.RLock()
	elem := a.elem
	a.mu.RUnlock()

	ctx, span := a.tracer.StartSpan(context.Background(), ArrayParseSpan)
	defer span.Finish()
	span.SetTag(ArrayTagConnector, string(a.name))

	a.metrics.Counter(ArrayParsedTotal).Inc()

	out := make([]T, 0)
	var warnings []string
	stopped := false

	for {
		next, r := elem.Parse(c)
		if r.IsError() {
			stopped = true
			break
		}
		if next.consumed() == c.consumed() {
			// An element that consumed nothing would repeat forever.
			break
		}
		value, _ := r.Value()
		out = append(out, value)
		warnings = append(warnings, r.warnings...)
		c = next
	}

	span.SetTag(ArrayTagLength, strconv.Itoa(len(out)))
	a.metrics.Gauge(ArrayLengthLast).Set(float64(len(out)))

	_ = a.hooks.Emit(ctx, ArrayEventParsed, ArrayEvent{ //nolint:errcheck
		Name:      a.name,
		Length:    len(out),
		Warnings:  len(warnings),
		Stopped:   stopped,
		Timestamp: time.Now(),
	})

	if len(warnings) > 0 {
		return c, Warning(out, warnings...)
	}
	return c, Success(out)
}

// Serialize implements the Mapping interface.
func (a *Array[T]) Serialize(values []T, out url.Values) url.Values {
	a.mu.RLock()
	elem := a.elem
	a.mu.RUnlock()

	_, span := a.tracer.StartSpan(context.Background(), ArraySerializeSpan)
	defer span.Finish()
	span.SetTag(ArrayTagConnector, string(a.name))
	span.SetTag(ArrayTagLength, strconv.Itoa(len(values)))

	a.metrics.Counter(ArraySerializedTotal).Inc()

	out = ensureValues(out)
	for _, value := range values {
		out = elem.Serialize(value, out)
	}
	return out
}

// SetElement replaces the element mapping.
func (a *Array[T]) SetElement(elem Mapping[T]) *Array[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.elem = elem
	return a
}

// Element returns the current element mapping.
func (a *Array[T]) Element() Mapping[T] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.elem
}

// Name returns the name of this connector.
func (a *Array[T]) Name() Name {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// Metrics returns the metrics registry for this connector.
func (a *Array[T]) Metrics() *metricz.Registry {
	return a.metrics
}

// Tracer returns the tracer for this connector.
func (a *Array[T]) Tracer() *tracez.Tracer {
	return a.tracer
}

// Close gracefully shuts down observability components.
func (a *Array[T]) Close() error {
	if a.tracer != nil {
		a.tracer.Close()
	}
	a.hooks.Close()
	return nil
}

// OnParsed registers a handler for when a greedy scan finishes.
// The handler is called asynchronously with the element count and whether
// a failing attempt ended the scan.
func (a *Array[T]) OnParsed(handler func(context.Context, ArrayEvent) error) error {
	_, err := a.hooks.Hook(ArrayEventParsed, handler)
	return err
}
