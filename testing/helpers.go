// Package testing provides test utilities and helpers for queryz-based
// applications.
//
// This package includes a mock mapping, result assertions, and a round-trip
// checker to make testing query codecs easier.
//
// Example usage:
//
//	func TestMyCodec(t *testing.T) {
//		mock := testing.NewMockMapping[int](t, "mock-mapping")
//		mock.WithResult(42)
//
//		values, _ := queryz.SplitQuery("page=3")
//		_, result := mock.Parse(queryz.NewCursor(values))
//
//		testing.AssertSuccess(t, result, 42)
//		testing.AssertParsed(t, mock, 1)
//	}
package testing

import (
	"net/url"
	"sync"
	"testing"

	"github.com/zoobzio/queryz"
)

// MockMapping provides a configurable mock implementation of
// queryz.Mapping[T]. It tracks parse and serialize calls, allows scripting
// the parse result and cursor consumption, and provides assertion methods
// for testing combinator behavior.
type MockMapping[T any] struct {
	t            *testing.T
	name         queryz.Name
	result       queryz.Result[T]
	consumeKey   string
	serializeKey string
	parseCount   int
	serialCount  int
	lastValue    T
	mu           sync.Mutex
}

// NewMockMapping creates a mock mapping for testing. Until configured with
// WithResult or WithFailure, every parse returns the zero value of T.
func NewMockMapping[T any](t *testing.T, name queryz.Name) *MockMapping[T] {
	var zero T
	return &MockMapping[T]{
		t:      t,
		name:   name,
		result: queryz.Success(zero),
	}
}

// WithResult configures the mock to return a successful parse of value.
func (m *MockMapping[T]) WithResult(value T) *MockMapping[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = queryz.Success(value)
	return m
}

// WithWarning configures the mock to return value in the warning state.
func (m *MockMapping[T]) WithWarning(value T, warnings ...string) *MockMapping[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = queryz.Warning(value, warnings...)
	return m
}

// WithFailure configures the mock to fail every parse with errs.
func (m *MockMapping[T]) WithFailure(errs ...error) *MockMapping[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = queryz.Failure[T](errs...)
	return m
}

// WithConsume makes each parse take one occurrence of key before returning
// the configured result. Use this to exercise combinators that depend on
// cursor progress, such as arrays.
func (m *MockMapping[T]) WithConsume(key string) *MockMapping[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeKey = key
	return m
}

// WithSerializeKey makes Serialize append the value's string form under key.
func (m *MockMapping[T]) WithSerializeKey(key string) *MockMapping[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serializeKey = key
	return m
}

// Parse implements queryz.Mapping[T].
func (m *MockMapping[T]) Parse(c queryz.Cursor) (queryz.Cursor, queryz.Result[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parseCount++
	if m.consumeKey != "" {
		next, taken := c.Take(m.consumeKey)
		if taken.IsError() {
			return c, queryz.Failure[T](taken.Errors()...)
		}
		return next, m.result
	}
	return c, m.result
}

// Serialize implements queryz.Mapping[T].
func (m *MockMapping[T]) Serialize(value T, out url.Values) url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serialCount++
	m.lastValue = value
	if m.serializeKey == "" {
		return out
	}
	if out == nil {
		out = url.Values{}
	}
	out.Add(m.serializeKey, "mock")
	return out
}

// Name implements queryz.Mapping[T].
func (m *MockMapping[T]) Name() queryz.Name {
	return m.name
}

// ParseCount returns how many times Parse has been called.
func (m *MockMapping[T]) ParseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parseCount
}

// SerializeCount returns how many times Serialize has been called.
func (m *MockMapping[T]) SerializeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serialCount
}

// LastSerialized returns the most recent value passed to Serialize.
func (m *MockMapping[T]) LastSerialized() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastValue
}

// Reset clears call counts and history.
func (m *MockMapping[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parseCount = 0
	m.serialCount = 0
	var zero T
	m.lastValue = zero
}

// AssertParsed verifies the mock's Parse was called exactly expected times.
func AssertParsed[T any](t *testing.T, mock *MockMapping[T], expected int) {
	t.Helper()
	if got := mock.ParseCount(); got != expected {
		t.Errorf("expected %d parse calls, got %d", expected, got)
	}
}

// AssertSuccess fails the test unless result is a clean success holding want.
func AssertSuccess[T comparable](t *testing.T, result queryz.Result[T], want T) {
	t.Helper()
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %s", result)
	}
	got, _ := result.Value()
	if got != want {
		t.Errorf("expected value %v, got %v", want, got)
	}
}

// AssertWarning fails the test unless result is in the warning state holding
// want with at least one warning.
func AssertWarning[T comparable](t *testing.T, result queryz.Result[T], want T) {
	t.Helper()
	if !result.IsWarning() {
		t.Fatalf("expected warning state, got %s", result)
	}
	got, _ := result.Value()
	if got != want {
		t.Errorf("expected value %v, got %v", want, got)
	}
	if len(result.Warnings()) == 0 {
		t.Error("expected at least one warning")
	}
}

// AssertFailure fails the test unless result is in the error state.
func AssertFailure[T any](t *testing.T, result queryz.Result[T]) {
	t.Helper()
	if !result.IsError() {
		t.Fatalf("expected error state, got %s", result)
	}
	if len(result.Errors()) == 0 {
		t.Error("error state must carry at least one error")
	}
}

// AssertRoundTrip serializes value through mapping, parses it back, and
// fails the test unless the reparse succeeds with an equal value and no
// leftover occurrences.
func AssertRoundTrip[T comparable](t *testing.T, mapping queryz.Mapping[T], value T) {
	t.Helper()
	encoded := queryz.Serialize(mapping, value)
	cursor := queryz.NewCursor(encoded)
	next, result := mapping.Parse(cursor)
	if result.IsError() {
		t.Fatalf("round trip of %v failed: %v", value, result.Err())
	}
	got, _ := result.Value()
	if got != value {
		t.Errorf("round trip of %v returned %v", value, got)
	}
	if leftovers := next.Remaining(); len(leftovers) != 0 {
		t.Errorf("round trip of %v left unparsed keys %v", value, leftovers)
	}
}
