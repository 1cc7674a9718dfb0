package queryz

import (
	"net/url"
	"testing"
)

func TestOptional(t *testing.T) {
	mapping := Optional[int]("page", Int("page"))

	t.Run("Present Value", func(t *testing.T) {
		c := NewCursor(url.Values{"page": {"3"}})
		next, r := mapping.Parse(c)
		value, _ := r.Value()
		if value == nil || *value != 3 {
			t.Errorf("expected pointer to 3, got %v", value)
		}
		if next.Pos("page") != 1 {
			t.Error("expected occurrence consumed")
		}
	})

	t.Run("Absent Value Is Nil Not Error", func(t *testing.T) {
		c := NewCursor(url.Values{})
		_, r := mapping.Parse(c)
		if !r.IsSuccess() {
			t.Fatalf("expected success, got %s", r)
		}
		value, _ := r.Value()
		if value != nil {
			t.Errorf("expected nil, got %v", value)
		}
	})

	t.Run("Failed Attempt Restores Cursor", func(t *testing.T) {
		c := NewCursor(url.Values{"page": {"abc"}})
		next, r := mapping.Parse(c)
		if !r.IsSuccess() {
			t.Fatalf("expected success, got %s", r)
		}
		// The failed inner attempt's consumption is discarded.
		if next.Pos("page") != 0 {
			t.Errorf("expected cursor restored, position is %d", next.Pos("page"))
		}
	})

	t.Run("Inner Warnings Survive", func(t *testing.T) {
		c := NewCursor(url.Values{"page": {"3.5"}})
		_, r := mapping.Parse(c)
		if !r.IsWarning() {
			t.Fatalf("expected warning state, got %s", r)
		}
		value, _ := r.Value()
		if value == nil || *value != 3 {
			t.Errorf("expected pointer to 3, got %v", value)
		}
	})

	t.Run("Serialize Nil Writes Nothing", func(t *testing.T) {
		out := mapping.Serialize(nil, nil)
		if out == nil || len(out) != 0 {
			t.Errorf("expected empty non-nil collection, got %v", out)
		}
	})

	t.Run("Serialize Pointer Delegates", func(t *testing.T) {
		value := 7
		out := mapping.Serialize(&value, nil)
		if got := out.Get("page"); got != "7" {
			t.Errorf("expected 7, got %q", got)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		value := 9
		encoded := mapping.Serialize(&value, nil)
		_, r := mapping.Parse(NewCursor(encoded))
		got, _ := r.Value()
		if got == nil || *got != 9 {
			t.Errorf("round trip returned %v", got)
		}

		encoded = mapping.Serialize(nil, nil)
		_, r = mapping.Parse(NewCursor(encoded))
		got, _ = r.Value()
		if got != nil {
			t.Errorf("round trip of nil returned %v", got)
		}
	})
}

func TestDefault(t *testing.T) {
	mapping := Default[int]("limit", Int("limit"), 20)

	t.Run("Present Value", func(t *testing.T) {
		c := NewCursor(url.Values{"limit": {"50"}})
		_, r := mapping.Parse(c)
		value, _ := r.Value()
		if value != 50 {
			t.Errorf("expected 50, got %d", value)
		}
	})

	t.Run("Absent Value Substitutes", func(t *testing.T) {
		c := NewCursor(url.Values{})
		_, r := mapping.Parse(c)
		if !r.IsSuccess() {
			t.Fatalf("expected success, got %s", r)
		}
		value, _ := r.Value()
		if value != 20 {
			t.Errorf("expected fallback 20, got %d", value)
		}
	})

	t.Run("Failed Attempt Restores Cursor", func(t *testing.T) {
		c := NewCursor(url.Values{"limit": {"lots"}})
		next, r := mapping.Parse(c)
		value, _ := r.Value()
		if value != 20 {
			t.Errorf("expected fallback 20, got %d", value)
		}
		if next.Pos("limit") != 0 {
			t.Errorf("expected cursor restored, position is %d", next.Pos("limit"))
		}
	})

	t.Run("Serialize Default Omits Parameter", func(t *testing.T) {
		out := mapping.Serialize(20, nil)
		if len(out) != 0 {
			t.Errorf("expected default value omitted, got %v", out)
		}
	})

	t.Run("Serialize Other Value Writes", func(t *testing.T) {
		out := mapping.Serialize(50, nil)
		if got := out.Get("limit"); got != "50" {
			t.Errorf("expected 50, got %q", got)
		}
	})

	t.Run("Accessors", func(t *testing.T) {
		if mapping.Name() != "limit" {
			t.Errorf("expected limit, got %s", mapping.Name())
		}
		if mapping.Value() != 20 {
			t.Errorf("expected 20, got %d", mapping.Value())
		}
		if mapping.Inner() == nil {
			t.Error("expected inner mapping")
		}
	})
}
