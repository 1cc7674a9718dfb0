package queryz

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// panicMapping panics on every operation, for exercising codec recovery.
type panicMapping struct{}

func (panicMapping) Parse(Cursor) (Cursor, Result[int]) {
	panic("mapping exploded")
}

func (panicMapping) Serialize(int, url.Values) url.Values {
	panic("mapping exploded")
}

func (panicMapping) Name() Name {
	return "panicky"
}

func TestParse(t *testing.T) {
	t.Run("No Leftovers", func(t *testing.T) {
		r := Parse[int](Int("n"), url.Values{"n": {"42"}})
		if !r.IsSuccess() {
			t.Fatalf("expected clean success, got %s", r)
		}
		value, _ := r.Value()
		if value != 42 {
			t.Errorf("expected 42, got %d", value)
		}
	})

	t.Run("Leftover Occurrences Warn", func(t *testing.T) {
		r := Parse[int](Int("n"), url.Values{"n": {"1", "2"}})
		if !r.IsWarning() {
			t.Fatalf("expected warning state, got %s", r)
		}
		value, _ := r.Value()
		if value != 1 {
			t.Errorf("expected 1, got %d", value)
		}
		warnings := r.Warnings()
		if len(warnings) != 1 || warnings[0] != "n has remaining unparsed instances" {
			t.Errorf("expected leftover warning, got %v", warnings)
		}
	})

	t.Run("Leftover Keys Warn Sorted", func(t *testing.T) {
		r := Parse[int](Int("n"), url.Values{"n": {"1"}, "z": {"x"}, "a": {"y"}})
		warnings := r.Warnings()
		if len(warnings) != 2 {
			t.Fatalf("expected two leftover warnings, got %v", warnings)
		}
		if !strings.HasPrefix(warnings[0], "a ") || !strings.HasPrefix(warnings[1], "z ") {
			t.Errorf("expected warnings sorted by key, got %v", warnings)
		}
	})

	t.Run("Error Keeps Leftover Warnings", func(t *testing.T) {
		r := Parse[int](Int("n"), url.Values{"other": {"x"}})
		if !r.IsError() {
			t.Fatal("expected error state")
		}
		if len(r.Warnings()) != 1 {
			t.Errorf("expected leftover warning alongside the error, got %v", r.Warnings())
		}
	})
}

func TestSerialize(t *testing.T) {
	out := Serialize[int](Int("n"), 42)
	if got := out.Get("n"); got != "42" {
		t.Errorf("expected 42, got %q", got)
	}
}

func TestCodec_Parse(t *testing.T) {
	t.Run("Delegates To Mapping", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", Int("n"))
		defer codec.Close()

		r := codec.Parse(context.Background(), url.Values{"n": {"42"}})
		value, _ := r.Value()
		if value != 42 {
			t.Errorf("expected 42, got %d", value)
		}
	})

	t.Run("Folds In Leftover Warnings", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", Int("n"))
		defer codec.Close()

		r := codec.Parse(context.Background(), url.Values{"n": {"1", "2"}})
		if !r.IsWarning() {
			t.Fatalf("expected warning state, got %s", r)
		}
		if warnings := r.Warnings(); len(warnings) != 1 || warnings[0] != "n has remaining unparsed instances" {
			t.Errorf("expected leftover warning, got %v", warnings)
		}
	})

	t.Run("Recovers From Panics", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", panicMapping{})
		defer codec.Close()

		r := codec.Parse(context.Background(), url.Values{})
		if !errors.Is(r.Err(), ErrPanicked) {
			t.Fatalf("expected ErrPanicked, got %v", r.Err())
		}
		var pe *ParseError
		if !errors.As(r.Err(), &pe) {
			t.Fatal("expected *ParseError")
		}
		if !strings.Contains(pe.Detail, "mapping exploded") {
			t.Errorf("expected panic value in detail, got %q", pe.Detail)
		}
	})

	t.Run("Handles Nil Context", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", Int("n"))
		defer codec.Close()

		r := codec.Parse(nil, url.Values{"n": {"7"}}) //nolint:staticcheck // Testing nil context handling
		value, _ := r.Value()
		if value != 7 {
			t.Errorf("expected 7, got %d", value)
		}
	})

	t.Run("Counts Outcomes", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", Int("n"))
		defer codec.Close()

		codec.Parse(context.Background(), url.Values{"n": {"1"}})
		codec.Parse(context.Background(), url.Values{"n": {"1.5"}})
		codec.Parse(context.Background(), url.Values{})

		metrics := codec.Metrics()
		if got := metrics.Counter(CodecParsedTotal).Value(); got != 3 {
			t.Errorf("expected 3 parses counted, got %v", got)
		}
		if got := metrics.Counter(CodecSuccessesTotal).Value(); got != 1 {
			t.Errorf("expected 1 success, got %v", got)
		}
		if got := metrics.Counter(CodecWarningsTotal).Value(); got != 1 {
			t.Errorf("expected 1 warning, got %v", got)
		}
		if got := metrics.Counter(CodecFailuresTotal).Value(); got != 1 {
			t.Errorf("expected 1 failure, got %v", got)
		}
	})
}

func TestCodec_Serialize(t *testing.T) {
	t.Run("Delegates To Mapping", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", Int("n"))
		defer codec.Close()

		out := codec.Serialize(context.Background(), 42)
		if got := out.Get("n"); got != "42" {
			t.Errorf("expected 42, got %q", got)
		}
	})

	t.Run("Recovers From Panics", func(t *testing.T) {
		codec := NewCodec[int]("test-codec", panicMapping{})
		defer codec.Close()

		out := codec.Serialize(context.Background(), 1)
		if out == nil || len(out) != 0 {
			t.Errorf("expected empty collection after panic, got %v", out)
		}
	})
}

func TestCodec_QueryStrings(t *testing.T) {
	t.Run("ParseQuery", func(t *testing.T) {
		codec := NewCodec[string]("test-codec", String("q"))
		defer codec.Close()

		r := codec.ParseQuery(context.Background(), "q=hello%20world")
		value, _ := r.Value()
		if value != "hello world" {
			t.Errorf("expected decoded value, got %q", value)
		}
	})

	t.Run("ParseQuery Bad Key Escape", func(t *testing.T) {
		codec := NewCodec[string]("test-codec", String("q"))
		defer codec.Close()

		r := codec.ParseQuery(context.Background(), "%zz=x")
		if !errors.Is(r.Err(), ErrBadEscape) {
			t.Errorf("expected ErrBadEscape, got %v", r.Err())
		}
	})

	t.Run("EncodeQuery", func(t *testing.T) {
		codec := NewCodec[string]("test-codec", String("q"))
		defer codec.Close()

		query := codec.EncodeQuery(context.Background(), "hello world")
		if query != "q=hello+world" {
			t.Errorf("expected q=hello+world, got %q", query)
		}
	})
}

func TestCodec_WithClock(t *testing.T) {
	// slowMapping advances the fake clock mid-parse so the measured
	// duration is deterministic.
	clock := clockz.NewFakeClock()
	codec := NewCodec[int]("test-codec", clockStepMapping{clock: clock, step: 250 * time.Millisecond})
	defer codec.Close()
	codec.WithClock(clock)

	codec.Parse(context.Background(), url.Values{"n": {"1"}})

	if got := codec.Metrics().Gauge(CodecDurationMs).Value(); got != 250 {
		t.Errorf("expected 250ms recorded, got %v", got)
	}
}

type clockStepMapping struct {
	clock *clockz.FakeClock
	step  time.Duration
}

func (m clockStepMapping) Parse(c Cursor) (Cursor, Result[int]) {
	m.clock.Advance(m.step)
	next, _ := c.Take("n")
	return next, Success(1)
}

func (m clockStepMapping) Serialize(int, url.Values) url.Values {
	return url.Values{}
}

func (clockStepMapping) Name() Name {
	return "clock-step"
}

func TestCodec_Hooks(t *testing.T) {
	codec := NewCodec[int]("test-codec", Int("n"))
	defer codec.Close()

	var mu sync.Mutex
	var events []CodecEvent
	if err := codec.OnParsed(func(_ context.Context, event CodecEvent) error {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("failed to register hook: %v", err)
	}

	codec.Parse(context.Background(), url.Values{"n": {"42"}})

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		count := len(events)
		mu.Unlock()
		if count > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("hook never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if events[0].Name != "test-codec" || events[0].Outcome != "success" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestSplitQuery(t *testing.T) {
	t.Run("Values Stay Encoded", func(t *testing.T) {
		values, err := SplitQuery("q=hello%20world&page=2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := values.Get("q"); got != "hello%20world" {
			t.Errorf("expected value left encoded, got %q", got)
		}
		if got := values.Get("page"); got != "2" {
			t.Errorf("expected 2, got %q", got)
		}
	})

	t.Run("Keys Are Decoded", func(t *testing.T) {
		values, err := SplitQuery("my%20key=x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := values.Get("my key"); got != "x" {
			t.Errorf("expected decoded key, got %v", values)
		}
	})

	t.Run("Repeated Keys Preserve Order", func(t *testing.T) {
		values, err := SplitQuery("tag=a&tag=b&tag=c")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := values["tag"]
		if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
			t.Errorf("expected [a b c], got %v", got)
		}
	})

	t.Run("Leading Question Mark Tolerated", func(t *testing.T) {
		values, err := SplitQuery("?n=1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := values.Get("n"); got != "1" {
			t.Errorf("expected 1, got %q", got)
		}
	})

	t.Run("Empty Pairs Skipped", func(t *testing.T) {
		values, err := SplitQuery("a=1&&b=2&")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(values) != 2 {
			t.Errorf("expected two keys, got %v", values)
		}
	})

	t.Run("Missing Equals Yields Empty Value", func(t *testing.T) {
		values, err := SplitQuery("flag")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, ok := values["flag"]; !ok || len(got) != 1 || got[0] != "" {
			t.Errorf("expected flag with empty value, got %v", values)
		}
	})

	t.Run("Bad Key Escape Fails", func(t *testing.T) {
		_, err := SplitQuery("%zz=x")
		if !errors.Is(err, ErrBadEscape) {
			t.Errorf("expected ErrBadEscape, got %v", err)
		}
	})
}

func TestJoinQuery(t *testing.T) {
	t.Run("Keys Sorted Values Verbatim", func(t *testing.T) {
		values := url.Values{"b": {"2"}, "a": {"hello%20world"}}
		if got := JoinQuery(values); got != "a=hello%20world&b=2" {
			t.Errorf("unexpected query string: %q", got)
		}
	})

	t.Run("Repeated Keys In Order", func(t *testing.T) {
		values := url.Values{"tag": {"a", "b"}}
		if got := JoinQuery(values); got != "tag=a&tag=b" {
			t.Errorf("unexpected query string: %q", got)
		}
	})

	t.Run("Empty Collection", func(t *testing.T) {
		if got := JoinQuery(url.Values{}); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("Round Trips With SplitQuery", func(t *testing.T) {
		original := url.Values{"q": {"hello%20world"}, "tag": {"a", "b"}}
		parsed, err := SplitQuery(JoinQuery(original))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed.Get("q") != "hello%20world" || len(parsed["tag"]) != 2 {
			t.Errorf("round trip mangled values: %v", parsed)
		}
	})
}
