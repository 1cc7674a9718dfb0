package queryz

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Either connector.
const (
	// Metrics.
	EitherParsedTotal    = metricz.Key("either.parsed.total")
	EitherLeftTotal      = metricz.Key("either.left.total")
	EitherRightTotal     = metricz.Key("either.right.total")
	EitherAmbiguousTotal = metricz.Key("either.ambiguous.total")
	EitherFailedTotal    = metricz.Key("either.failed.total")

	// Spans.
	EitherParseSpan = tracez.Key("either.parse")

	// Tags.
	EitherTagConnector = tracez.Tag("either.connector")
	EitherTagChose     = tracez.Tag("either.chose")

	// Hook event keys.
	EitherEventResolved = hookz.Key("either.resolved")
)

// EitherEvent represents an alternative resolution event.
// This is emitted via hookz when both branches have been attempted,
// recording which one supplied the value.
type EitherEvent struct {
	Name      Name      // Connector name
	Chose     string    // "left", "right", or "none"
	Ambiguous bool      // Whether both branches produced a value
	Timestamp time.Time // When the event occurred
}

// Either attempts two alternative mappings against the same cursor and
// resolves them with EitherResult. If exactly one branch produces a value,
// its result and cursor win. If both fail, the original cursor is restored
// and the combined error lists both branches' failures behind
// ErrNoAlternative. If both produce a value, the left branch's value and
// cursor win but the Result is demoted to a warning carrying
// AmbiguousChoiceWarning - deliberate ambiguity signaling, preserved so
// callers can detect overlapping alternatives.
//
// Serializing always delegates to the left branch; an Either whose
// alternatives serialize differently should put the canonical form on the
// left.
//
// Example:
//
//	id := queryz.NewEither("id", queryz.Int("id"), queryz.Int("user_id"))
//
// # Observability
//
// Metrics:
//   - either.parsed.total: Counter of resolutions
//   - either.left.total: Counter of resolutions won by the left branch
//   - either.right.total: Counter of resolutions won by the right branch
//   - either.ambiguous.total: Counter of resolutions where both matched
//   - either.failed.total: Counter of resolutions where both failed
//
// Traces:
//   - either.parse: Span covering both attempts
//
// Events (via hooks):
//   - either.resolved: Fired after both branches have been attempted
type Either[T any] struct {
	left    Mapping[T]
	right   Mapping[T]
	name    Name
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[EitherEvent]
}

// NewEither creates a new Either connector over two alternative mappings.
func NewEither[T any](name Name, left, right Mapping[T]) *Either[T] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(EitherParsedTotal)
	metrics.Counter(EitherLeftTotal)
	metrics.Counter(EitherRightTotal)
	metrics.Counter(EitherAmbiguousTotal)
	metrics.Counter(EitherFailedTotal)

	return &Either[T]{
		name:    name,
		left:    left,
		right:   right,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[EitherEvent](),
	}
}

// Parse implements the Mapping interface.
// Both branches are attempted from the same cursor; the losing attempt's
// consumption is discarded along with its cursor.
func (e *Either[T]) Parse(c Cursor) (Cursor, Result[T]) {
	e.mu.RLock()
	left := e.left
	right := e.right
	e.mu.RUnlock()

	e.metrics.Counter(EitherParsedTotal).Inc()

	ctx, span := e.tracer.StartSpan(context.Background(), EitherParseSpan)
	defer span.Finish()
	span.SetTag(EitherTagConnector, string(e.name))

	leftCursor, leftResult := left.Parse(c)
	rightCursor, rightResult := right.Parse(c)

	result := EitherResult(leftResult, rightResult)

	var next Cursor
	var chose string
	switch {
	case leftResult.IsError() && rightResult.IsError():
		next = c
		chose = "none"
		e.metrics.Counter(EitherFailedTotal).Inc()
		result = pathResult(e.name, result)
	case leftResult.IsError():
		next = rightCursor
		chose = "right"
		e.metrics.Counter(EitherRightTotal).Inc()
	default:
		next = leftCursor
		chose = "left"
		e.metrics.Counter(EitherLeftTotal).Inc()
		if !rightResult.IsError() {
			e.metrics.Counter(EitherAmbiguousTotal).Inc()
		}
	}
	span.SetTag(EitherTagChose, chose)

	_ = e.hooks.Emit(ctx, EitherEventResolved, EitherEvent{ //nolint:errcheck
		Name:      e.name,
		Chose:     chose,
		Ambiguous: !leftResult.IsError() && !rightResult.IsError(),
		Timestamp: time.Now(),
	})

	return next, result
}

// Serialize implements the Mapping interface.
// Serialization always uses the left alternative.
func (e *Either[T]) Serialize(value T, out url.Values) url.Values {
	e.mu.RLock()
	left := e.left
	e.mu.RUnlock()
	return left.Serialize(value, out)
}

// SetLeft replaces the left alternative.
func (e *Either[T]) SetLeft(mapping Mapping[T]) *Either[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.left = mapping
	return e
}

// SetRight replaces the right alternative.
func (e *Either[T]) SetRight(mapping Mapping[T]) *Either[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.right = mapping
	return e
}

// Left returns the left alternative.
func (e *Either[T]) Left() Mapping[T] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.left
}

// Right returns the right alternative.
func (e *Either[T]) Right() Mapping[T] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.right
}

// Name returns the name of this connector.
func (e *Either[T]) Name() Name {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// Metrics returns the metrics registry for this connector.
func (e *Either[T]) Metrics() *metricz.Registry {
	return e.metrics
}

// Tracer returns the tracer for this connector.
func (e *Either[T]) Tracer() *tracez.Tracer {
	return e.tracer
}

// Close gracefully shuts down observability components.
func (e *Either[T]) Close() error {
	if e.tracer != nil {
		e.tracer.Close()
	}
	e.hooks.Close()
	return nil
}

// OnResolved registers a handler for when both branches have been
// attempted. The handler is called asynchronously with the winning side.
func (e *Either[T]) OnResolved(handler func(context.Context, EitherEvent) error) error {
	_, err := e.hooks.Hook(EitherEventResolved, handler)
	return err
}
