package testing

import (
	"errors"
	"net/url"
	"testing"

	"github.com/zoobzio/queryz"
)

func TestMockMapping(t *testing.T) {
	t.Run("Default Returns Zero", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock")
		_, r := mock.Parse(queryz.NewCursor(url.Values{}))
		AssertSuccess(t, r, 0)
	})

	t.Run("WithResult", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock").WithResult(42)
		_, r := mock.Parse(queryz.NewCursor(url.Values{}))
		AssertSuccess(t, r, 42)
		AssertParsed(t, mock, 1)
	})

	t.Run("WithWarning", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock").WithWarning(42, "drift")
		_, r := mock.Parse(queryz.NewCursor(url.Values{}))
		AssertWarning(t, r, 42)
	})

	t.Run("WithFailure", func(t *testing.T) {
		boom := errors.New("boom")
		mock := NewMockMapping[int](t, "mock").WithFailure(boom)
		_, r := mock.Parse(queryz.NewCursor(url.Values{}))
		AssertFailure(t, r)
		if !errors.Is(r.Err(), boom) {
			t.Errorf("expected configured error, got %v", r.Err())
		}
	})

	t.Run("WithConsume Advances Cursor", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock").WithResult(1).WithConsume("tag")

		c := queryz.NewCursor(url.Values{"tag": {"a", "b"}})
		next, r := mock.Parse(c)
		AssertSuccess(t, r, 1)
		if next.Pos("tag") != 1 {
			t.Errorf("expected one occurrence consumed, got %d", next.Pos("tag"))
		}

		// Exhausting the key turns the scripted result into a failure.
		next, _ = mock.Parse(next)
		_, r = mock.Parse(next)
		AssertFailure(t, r)
	})

	t.Run("Tracks Serialization", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock").WithSerializeKey("out")
		values := mock.Serialize(7, nil)
		if got := values.Get("out"); got != "mock" {
			t.Errorf("expected mock occurrence written, got %v", values)
		}
		if mock.SerializeCount() != 1 {
			t.Errorf("expected 1 serialize call, got %d", mock.SerializeCount())
		}
		if mock.LastSerialized() != 7 {
			t.Errorf("expected 7 recorded, got %d", mock.LastSerialized())
		}
	})

	t.Run("Reset Clears State", func(t *testing.T) {
		mock := NewMockMapping[int](t, "mock").WithResult(1)
		mock.Parse(queryz.NewCursor(url.Values{}))
		mock.Serialize(5, nil)

		mock.Reset()
		if mock.ParseCount() != 0 || mock.SerializeCount() != 0 || mock.LastSerialized() != 0 {
			t.Error("expected counts cleared")
		}
	})

	t.Run("Name", func(t *testing.T) {
		mock := NewMockMapping[int](t, "my-mock")
		if mock.Name() != "my-mock" {
			t.Errorf("expected my-mock, got %s", mock.Name())
		}
	})
}

func TestAssertRoundTrip(t *testing.T) {
	AssertRoundTrip[int](t, queryz.Int("n"), 42)
	AssertRoundTrip[string](t, queryz.String("q"), "hello world")
	AssertRoundTrip[bool](t, queryz.Bool("debug"), true)
}
