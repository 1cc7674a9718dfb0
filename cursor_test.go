package queryz

import (
	"errors"
	"net/url"
	"testing"
)

func TestCursor_Take(t *testing.T) {
	t.Run("Consumes Occurrences In Order", func(t *testing.T) {
		c := NewCursor(url.Values{"tag": {"a", "b"}})

		c, r := c.Take("tag")
		value, _ := r.Value()
		if value != "a" {
			t.Errorf("expected a, got %s", value)
		}

		c, r = c.Take("tag")
		value, _ = r.Value()
		if value != "b" {
			t.Errorf("expected b, got %s", value)
		}

		if c.Pos("tag") != 2 {
			t.Errorf("expected position 2, got %d", c.Pos("tag"))
		}
	})

	t.Run("Missing Key Fails", func(t *testing.T) {
		c := NewCursor(url.Values{})
		next, r := c.Take("absent")
		if !r.IsError() {
			t.Fatal("expected error for absent key")
		}
		if !errors.Is(r.Err(), ErrMissingParameter) {
			t.Errorf("expected ErrMissingParameter, got %v", r.Err())
		}
		if next.Pos("absent") != 0 {
			t.Error("failed take must not advance the cursor")
		}
	})

	t.Run("Exhausted Key Fails", func(t *testing.T) {
		c := NewCursor(url.Values{"page": {"1"}})
		c, _ = c.Take("page")
		next, r := c.Take("page")
		if !errors.Is(r.Err(), ErrMissingParameter) {
			t.Errorf("expected ErrMissingParameter, got %v", r.Err())
		}
		if next.Pos("page") != 1 {
			t.Error("failed take must leave the position unchanged")
		}
	})

	t.Run("Old Cursor Stays Valid After Advance", func(t *testing.T) {
		before := NewCursor(url.Values{"n": {"1", "2"}})
		after, _ := before.Take("n")

		// Backtracking: the pre-advance cursor still reads the first occurrence.
		_, r := before.Take("n")
		value, _ := r.Value()
		if value != "1" {
			t.Errorf("expected original cursor to re-read 1, got %s", value)
		}

		_, r = after.Take("n")
		value, _ = r.Value()
		if value != "2" {
			t.Errorf("expected advanced cursor to read 2, got %s", value)
		}
	})

	t.Run("Keys Advance Independently", func(t *testing.T) {
		c := NewCursor(url.Values{"a": {"1"}, "b": {"2"}})
		c, _ = c.Take("a")
		if c.Pos("a") != 1 || c.Pos("b") != 0 {
			t.Errorf("expected independent positions, got a=%d b=%d", c.Pos("a"), c.Pos("b"))
		}
	})
}

func TestCursor_Remaining(t *testing.T) {
	c := NewCursor(url.Values{"a": {"1"}, "b": {"2", "3"}, "c": {"4"}})
	c, _ = c.Take("a")
	c, _ = c.Take("b")

	remaining := c.Remaining()
	if len(remaining) != 2 || remaining[0] != "b" || remaining[1] != "c" {
		t.Errorf("expected sorted [b c], got %v", remaining)
	}

	c, _ = c.Take("b")
	c, _ = c.Take("c")
	if len(c.Remaining()) != 0 {
		t.Errorf("expected nothing remaining, got %v", c.Remaining())
	}
}

func TestCursor_Len(t *testing.T) {
	c := NewCursor(url.Values{"tag": {"a", "b", "c"}})
	if c.Len("tag") != 3 {
		t.Errorf("expected 3, got %d", c.Len("tag"))
	}
	if c.Len("absent") != 0 {
		t.Errorf("expected 0 for absent key, got %d", c.Len("absent"))
	}
}

func TestCursor_Consumed(t *testing.T) {
	c := NewCursor(url.Values{"a": {"1"}, "b": {"2"}})
	if c.consumed() != 0 {
		t.Errorf("expected 0, got %d", c.consumed())
	}
	c, _ = c.Take("a")
	c, _ = c.Take("b")
	if c.consumed() != 2 {
		t.Errorf("expected 2, got %d", c.consumed())
	}
}
