package queryz

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Codec.
const (
	// Metrics.
	CodecParsedTotal     = metricz.Key("codec.parsed.total")
	CodecSuccessesTotal  = metricz.Key("codec.successes.total")
	CodecWarningsTotal   = metricz.Key("codec.warnings.total")
	CodecFailuresTotal   = metricz.Key("codec.failures.total")
	CodecSerializedTotal = metricz.Key("codec.serialized.total")
	CodecDurationMs      = metricz.Key("codec.duration.ms")

	// Spans.
	CodecParseSpan     = tracez.Key("codec.parse")
	CodecSerializeSpan = tracez.Key("codec.serialize")

	// Tags.
	CodecTagCodec   = tracez.Tag("codec.name")
	CodecTagOutcome = tracez.Tag("codec.outcome")
	CodecTagError   = tracez.Tag("codec.error")

	// Hook event keys.
	CodecEventParsed     = hookz.Key("codec.parsed")
	CodecEventSerialized = hookz.Key("codec.serialized")
)

// CodecEvent represents a codec boundary event.
// This is emitted via hookz when a top-level parse or serialize finishes.
type CodecEvent struct {
	Name      Name          // Codec name
	Outcome   string        // "success", "warning", "error", or "panic"
	Keys      int           // Parameter keys in the input or output
	Warnings  int           // Warnings on the result
	Errors    int           // Errors on the result
	Duration  time.Duration // How long the operation took
	Timestamp time.Time     // When the event occurred
}

// Parse runs mapping against input and folds in one synthetic warning per
// parameter left with unread occurrences, enforcing the consumed-exactly-once
// contract at the top level. Input values must still be percent-encoded;
// use SplitQuery, not url.ParseQuery, when starting from a raw query string.
func Parse[T any](mapping Mapping[T], input url.Values) Result[T] {
	cursor, result := mapping.Parse(NewCursor(input))
	leftovers := cursor.Remaining()
	if len(leftovers) == 0 {
		return result
	}
	warnings := make([]string, len(leftovers))
	for i, key := range leftovers {
		warnings[i] = leftoverWarning(key)
	}
	result.warnings = append(slices.Clone(result.warnings), warnings...)
	return result
}

// Serialize runs mapping against value and returns the resulting
// multi-valued collection, with values percent-encoded where the mapping
// encodes them.
func Serialize[T any](mapping Mapping[T], value T) url.Values {
	return mapping.Serialize(value, url.Values{})
}

// leftoverWarning renders the warning for one unconsumed parameter key.
func leftoverWarning(key string) string {
	return fmt.Sprintf("%s has remaining unparsed instances", key)
}

// Codec is the application-facing boundary around a mapping. It bundles the
// top-level Parse and Serialize entry points with raw query-string
// conversion, panic recovery, metrics, tracing, hooks, and capitan
// lifecycle signals. A mapping that panics inside a Codec operation yields
// an ErrPanicked failure instead of unwinding into the caller.
//
// Example:
//
//	codec := queryz.NewCodec[Search]("search-codec", searchMapping)
//	result := codec.ParseQuery(ctx, "q=hello%20world&page=2")
//
// # Observability
//
// Metrics:
//   - codec.parsed.total: Counter of parse operations
//   - codec.successes.total: Counter of clean parses
//   - codec.warnings.total: Counter of parses that carried warnings
//   - codec.failures.total: Counter of failed parses
//   - codec.serialized.total: Counter of serialize operations
//   - codec.duration.ms: Gauge of the most recent operation duration
//
// Traces:
//   - codec.parse: Span for the whole parse
//   - codec.serialize: Span for the whole serialize
//
// Events (via hooks):
//   - codec.parsed: Fired when a parse finishes
//   - codec.serialized: Fired when a serialize finishes
//
// Timestamps and durations come from the codec's clock; use WithClock with
// a fake clock from clockz for deterministic tests.
type Codec[T any] struct {
	mapping Mapping[T]
	clock   clockz.Clock
	name    Name
	mu      sync.RWMutex
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[CodecEvent]
}

// NewCodec creates a new Codec around a mapping.
func NewCodec[T any](name Name, mapping Mapping[T]) *Codec[T] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(CodecParsedTotal)
	metrics.Counter(CodecSuccessesTotal)
	metrics.Counter(CodecWarningsTotal)
	metrics.Counter(CodecFailuresTotal)
	metrics.Counter(CodecSerializedTotal)
	metrics.Gauge(CodecDurationMs)

	c := &Codec[T]{
		name:    name,
		mapping: mapping,
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[CodecEvent](),
	}

	emitCodecCreated(context.Background(), name, mapping.Name())
	return c
}

// Parse parses input through the codec's mapping, folding in leftover
// warnings exactly like the package-level Parse.
func (c *Codec[T]) Parse(ctx context.Context, input url.Values) (result Result[T]) {
	c.mu.RLock()
	mapping := c.mapping
	clock := c.getClock()
	c.mu.RUnlock()

	// Handle nil context
	if ctx == nil {
		ctx = context.Background()
	}

	start := clock.Now()
	emitParseStart(ctx, c.name, len(input))
	c.metrics.Counter(CodecParsedTotal).Inc()

	ctx, span := c.tracer.StartSpan(ctx, CodecParseSpan)
	span.SetTag(CodecTagCodec, string(c.name))

	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			result = Failure[T](&ParseError{
				Err:    ErrPanicked,
				Detail: fmt.Sprintf("%v", r),
				Path:   []Name{c.name},
			})
			outcome = "panic"
		}

		elapsed := clock.Now().Sub(start)
		c.metrics.Gauge(CodecDurationMs).Set(float64(elapsed.Milliseconds()))

		switch {
		case result.IsError():
			if outcome != "panic" {
				outcome = "error"
			}
			c.metrics.Counter(CodecFailuresTotal).Inc()
			span.SetTag(CodecTagError, result.Err().Error())
		case result.IsWarning():
			outcome = "warning"
			c.metrics.Counter(CodecWarningsTotal).Inc()
		default:
			c.metrics.Counter(CodecSuccessesTotal).Inc()
		}
		span.SetTag(CodecTagOutcome, outcome)
		span.Finish()

		emitParseComplete(ctx, c.name, elapsed, len(result.warnings), result.Err())
		_ = c.hooks.Emit(ctx, CodecEventParsed, CodecEvent{ //nolint:errcheck
			Name:      c.name,
			Outcome:   outcome,
			Keys:      len(input),
			Warnings:  len(result.warnings),
			Errors:    len(result.errs),
			Duration:  elapsed,
			Timestamp: clock.Now(),
		})
	}()

	cursor, parsed := mapping.Parse(NewCursor(input))
	leftovers := cursor.Remaining()
	for _, key := range leftovers {
		emitUnconsumed(ctx, c.name, key)
		parsed.warnings = append(slices.Clone(parsed.warnings), leftoverWarning(key))
	}
	result = parsed
	return result
}

// Serialize serializes value through the codec's mapping.
func (c *Codec[T]) Serialize(ctx context.Context, value T) (out url.Values) {
	c.mu.RLock()
	mapping := c.mapping
	clock := c.getClock()
	c.mu.RUnlock()

	// Handle nil context
	if ctx == nil {
		ctx = context.Background()
	}

	start := clock.Now()
	emitSerializeStart(ctx, c.name)
	c.metrics.Counter(CodecSerializedTotal).Inc()

	ctx, span := c.tracer.StartSpan(ctx, CodecSerializeSpan)
	span.SetTag(CodecTagCodec, string(c.name))

	var panicErr error
	defer func() {
		outcome := "success"
		if r := recover(); r != nil {
			out = url.Values{}
			panicErr = &ParseError{
				Err:    ErrPanicked,
				Detail: fmt.Sprintf("%v", r),
				Path:   []Name{c.name},
			}
			outcome = "panic"
			span.SetTag(CodecTagError, panicErr.Error())
		}

		elapsed := clock.Now().Sub(start)
		c.metrics.Gauge(CodecDurationMs).Set(float64(elapsed.Milliseconds()))
		span.SetTag(CodecTagOutcome, outcome)
		span.Finish()

		emitSerializeComplete(ctx, c.name, elapsed, len(out), panicErr)
		_ = c.hooks.Emit(ctx, CodecEventSerialized, CodecEvent{ //nolint:errcheck
			Name:      c.name,
			Outcome:   outcome,
			Keys:      len(out),
			Duration:  elapsed,
			Timestamp: clock.Now(),
		})
	}()

	out = mapping.Serialize(value, url.Values{})
	return out
}

// ParseQuery splits a literal query string with SplitQuery and parses it.
// A malformed key escape fails before the mapping runs.
func (c *Codec[T]) ParseQuery(ctx context.Context, query string) Result[T] {
	values, err := SplitQuery(query)
	if err != nil {
		return Failure[T](err)
	}
	return c.Parse(ctx, values)
}

// EncodeQuery serializes value and assembles a literal query string with
// JoinQuery.
func (c *Codec[T]) EncodeQuery(ctx context.Context, value T) string {
	return JoinQuery(c.Serialize(ctx, value))
}

// Mapping returns the codec's root mapping.
func (c *Codec[T]) Mapping() Mapping[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapping
}

// Name returns the name of this codec.
func (c *Codec[T]) Name() Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Metrics returns the metrics registry for this codec.
func (c *Codec[T]) Metrics() *metricz.Registry {
	return c.metrics
}

// Tracer returns the tracer for this codec.
func (c *Codec[T]) Tracer() *tracez.Tracer {
	return c.tracer
}

// Close gracefully shuts down observability components.
func (c *Codec[T]) Close() error {
	if c.tracer != nil {
		c.tracer.Close()
	}
	c.hooks.Close()
	return nil
}

// WithClock sets a custom clock for testing.
func (c *Codec[T]) WithClock(clock clockz.Clock) *Codec[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
	return c
}

// getClock returns the clock to use.
func (c *Codec[T]) getClock() clockz.Clock {
	if c.clock == nil {
		return clockz.RealClock
	}
	return c.clock
}

// OnParsed registers a handler for when a top-level parse finishes.
// The handler is called asynchronously with the outcome and diagnostics.
func (c *Codec[T]) OnParsed(handler func(context.Context, CodecEvent) error) error {
	_, err := c.hooks.Hook(CodecEventParsed, handler)
	return err
}

// OnSerialized registers a handler for when a serialize finishes.
func (c *Codec[T]) OnSerialized(handler func(context.Context, CodecEvent) error) error {
	_, err := c.hooks.Hook(CodecEventSerialized, handler)
	return err
}

// SplitQuery splits a literal query string into a multi-valued collection
// without decoding values. Keys are percent-decoded; values keep their
// encoding so the String primitive can decode them itself. url.ParseQuery
// is unsuitable here because it decodes values a second time.
//
// A leading "?" is tolerated and empty pairs are skipped.
func SplitQuery(query string) (url.Values, error) {
	query = strings.TrimPrefix(query, "?")
	out := url.Values{}
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		if pair == "" {
			continue
		}
		rawKey, value, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, &ParseError{
				Err:    ErrBadEscape,
				Key:    rawKey,
				Detail: err.Error(),
			}
		}
		out[key] = append(out[key], value)
	}
	return out, nil
}

// JoinQuery assembles a multi-valued collection into a literal query
// string. Keys are sorted for deterministic output and percent-encoded;
// values are written verbatim, since Serialize already encoded them.
func JoinQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, value := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(value)
		}
	}
	return b.String()
}
