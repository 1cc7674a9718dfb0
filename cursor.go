package queryz

import (
	"net/url"
	"slices"
)

// Cursor is an immutable read position over a multi-valued parameter
// collection. It pairs the input mapping, which is fixed for the lifetime of
// one parse, with a per-key index of the next unread occurrence.
//
// Advancing a cursor produces a new Cursor value; the old one remains valid.
// Alternative branches exploit this for backtracking: attempt a parse,
// discard the resulting cursor on failure, and retry from the original. No
// explicit rewind operation exists or is needed.
type Cursor struct {
	values map[string][]string
	index  map[string]int
}

// NewCursor builds a Cursor over values with every key unread.
// The values map is retained, not copied; it must not be mutated while any
// cursor derived from it is in use.
func NewCursor(values url.Values) Cursor {
	return Cursor{
		values: values,
		index:  make(map[string]int, len(values)),
	}
}

// Take consumes the next unread occurrence of key. On success the returned
// Cursor has the occurrence marked read. If the key is absent, or every
// occurrence has been consumed, the Result fails with ErrMissingParameter
// and the Cursor is returned unchanged.
func (c Cursor) Take(key string) (Cursor, Result[string]) {
	seq, ok := c.values[key]
	if !ok {
		return c, Failure[string](&ParseError{Err: ErrMissingParameter, Key: key})
	}
	pos := c.index[key]
	if pos >= len(seq) {
		return c, Failure[string](&ParseError{Err: ErrMissingParameter, Key: key, Detail: "no more occurrences"})
	}
	next := make(map[string]int, len(c.index)+1)
	for k, v := range c.index {
		next[k] = v
	}
	next[key] = pos + 1
	return Cursor{values: c.values, index: next}, Success(seq[pos])
}

// Remaining returns every key with occurrences left unread, sorted for
// deterministic reporting. A top-level parse checks this list to warn about
// ignored occurrences.
func (c Cursor) Remaining() []string {
	var keys []string
	for key, seq := range c.values {
		if c.index[key] < len(seq) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// Pos returns the number of occurrences of key consumed so far.
func (c Cursor) Pos(key string) int {
	return c.index[key]
}

// Len returns the total number of occurrences of key in the input.
func (c Cursor) Len(key string) int {
	return len(c.values[key])
}

// consumed returns the total occurrences read across all keys. Array uses
// it to detect elements that make no progress.
func (c Cursor) consumed() int {
	total := 0
	for _, pos := range c.index {
		total += pos
	}
	return total
}
