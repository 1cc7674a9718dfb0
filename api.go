// Package queryz provides a lightweight, type-safe library for building bidirectional
// mappings between typed values and multi-valued query-parameter collections in Go.
//
// # Overview
//
// queryz lets developers describe the query-string surface of an application once,
// as a composition of small combinators, and get both directions for free: parsing
// raw parameter occurrences into typed values and serializing typed values back
// into canonical parameters. It addresses common challenges such as hand-rolled
// query parsing scattered across handlers, silent acceptance of malformed or
// leftover parameters, and parse/serialize pairs that drift apart over time.
//
// # Installation
//
//	go get github.com/zoobzio/queryz
//
// Requires Go 1.21+ for generic type constraints.
//
// # Core Concepts
//
// The library is built around a single, uniform interface:
//
//	type Mapping[T any] interface {
//	    Parse(Cursor) (Cursor, Result[T])
//	    Serialize(T, url.Values) url.Values
//	    Name() Name
//	}
//
// Key components:
//   - Primitives: leaf mappings for single parameters (Raw, String, Int, Float, Enum, Bool, Constant)
//   - Adapters: wrap an inner mapping with bidirectional transforms (Convert, Refine)
//   - Modifiers: make an inner mapping tolerant of absence (Optional, Default)
//   - Connectors: compose mappings into structures (NewArray, NewObject, NewUnion, NewEither)
//   - Codec: the application-facing entry point with observability and raw query-string handling
//
// Design philosophy:
//   - Primitives and adapters are immutable values (pure function pairs wrapped with metadata)
//   - Connectors are mutable pointers (configurable containers with runtime modification support)
//
// Everything implements Mapping[T], enabling seamless composition while maintaining
// type safety through Go generics. Parsing threads an immutable Cursor through the
// combinator tree so every parameter occurrence is consumed exactly once, and
// produces a three-state Result that aggregates warnings and errors as data rather
// than aborting. A Mapping built once may be used for many concurrent parses; it
// holds no per-parse state.
//
// # Primitives
//
// Primitives read and write one parameter:
//
//	page := queryz.Int("page")            // n=42 -> 42, n=42.5 -> 42 with a warning
//	query := queryz.String("q")           // percent-decodes on parse, encodes on serialize
//	sort := queryz.Enum("sort", "asc", "desc")
//	debug := queryz.Bool("debug")         // accepts exactly "true" or "false"
//
// Numeric primitives deliberately accept non-canonical forms with a warning
// rather than an error, so shared links survive format drift while the
// divergence is still flagged.
//
// # Modifiers
//
// Optional and Default convert an inner error into an absent or substituted
// value, restoring the pre-attempt cursor so no occurrence is consumed by the
// failed attempt:
//
//	limit := queryz.Default("limit", queryz.Int("limit"), 20)
//	cursor := queryz.Optional("cursor", queryz.String("cursor"))
//
// # Connectors
//
// Connectors compose mappings into aggregate shapes:
//
//	search := queryz.NewObject[Search]("search",
//	    queryz.Bind(queryz.String("q"),
//	        func(s Search) string { return s.Query },
//	        func(s Search, q string) Search { s.Query = q; return s },
//	    ),
//	    queryz.Bind(queryz.Default("page", queryz.Int("page"), 1),
//	        func(s Search) int { return s.Page },
//	        func(s Search, p int) Search { s.Page = p; return s },
//	    ),
//	)
//
//	tags := queryz.NewArray("tags", queryz.String("tag"))
//
//	filter := queryz.NewUnion[Filter]("filter", queryz.Enum("type", "user", "repo"),
//	    func(f Filter) string { return f.Type },
//	)
//	filter.AddVariant("user", userMapping)
//	filter.AddVariant("repo", repoMapping)
//
// Object parses fields in registration order and keeps going past field
// errors so that every sibling failure is reported, not just the first.
// Array parses greedily and stops before the first failing element.
// Either attempts both branches from the same cursor and flags the
// ambiguous case where both match.
//
// For struct-tag driven derivation of an Object, see Struct:
//
//	type Search struct {
//	    Query string `query:"q"`
//	    Page  int    `query:"page,default=1"`
//	    Sort  string `query:"sort,enum=asc|desc"`
//	}
//	mapping := queryz.MustStruct[Search]("search")
//
// # Entry Points
//
// Parse and Serialize operate on url.Values whose values are still
// percent-encoded; SplitQuery and JoinQuery convert to and from literal
// query strings without decoding values (url.ParseQuery would decode them a
// second time). The Codec wrapper bundles a mapping with these conversions
// plus metrics, tracing, hooks, and lifecycle signals:
//
//	codec := queryz.NewCodec[Search]("search-codec", search)
//	result := codec.ParseQuery(ctx, "q=hello%20world&page=2")
//	if value, ok := result.Value(); ok {
//	    // value.Query == "hello world", value.Page == 2
//	    for _, w := range result.Warnings() {
//	        log.Printf("query warning: %s", w)
//	    }
//	}
//
// A top-level parse folds in one warning per parameter left with unread
// occurrences, enforcing the consumed-exactly-once contract.
//
// # Error Handling
//
// queryz never panics on bad input and never stops at the first problem.
// Every failure is a *ParseError wrapping a sentinel (ErrMissingParameter,
// ErrInvalidFormat, ErrMembership, ...) inside the Result:
//
//	result := queryz.Parse(mapping, input)
//	if err := result.Err(); err != nil {
//	    if errors.Is(err, queryz.ErrMissingParameter) {
//	        // at least one required parameter was absent
//	    }
//	    var pe *queryz.ParseError
//	    if errors.As(err, &pe) {
//	        log.Printf("failed at: %s", strings.Join(pe.Path, " → "))
//	    }
//	}
//
// # Round-Trip Law
//
// For every value a mapping accepts, serializing and re-parsing reproduces
// the value exactly, with no warnings: serialization always emits canonical
// form. The testing subpackage ships an AssertRoundTrip helper for holding
// mappings to this law.
//
// # Best Practices
//
//  1. Build mappings once at startup and reuse them; they are safe for concurrent use
//  2. Use descriptive connector names - they appear in error paths
//  3. Prefer Default over Optional when a sensible zero exists; serialized output stays minimal
//  4. Check Result.Warnings() even on success and surface them to callers
//  5. Use SplitQuery rather than url.ParseQuery to keep values encoded for String
//  6. Let errors aggregate - report result.Err() once at the boundary
package queryz

import "net/url"

// Mapping defines the interface for any component that can parse values of
// type T from a parameter collection and serialize them back. This interface
// is the foundation of queryz - every primitive, adapter, modifier, and
// connector implements it, enabling seamless composition while maintaining
// type safety through Go generics.
//
// Parse consumes occurrences from the Cursor and returns the advanced cursor
// alongside a Result. Serialize appends occurrences for value to out and
// returns the extended collection; it may extend out in place when out is
// non-nil, and allocates when out is nil. Both directions are pure: a Mapping
// holds no per-call state and may be used concurrently.
//
// Key design principles:
//   - Type safety through generics (no interface{})
//   - Failures as data in the Result, never panics or halts
//   - Immutable Cursor threading for safe backtracking
//   - Named components for debugging and error paths
type Mapping[T any] interface {
	Parse(Cursor) (Cursor, Result[T])
	Serialize(T, url.Values) url.Values
	Name() Name
}

// Name is a type alias for mapping and connector names. Using this type
// encourages storing names as constants rather than inline strings
// throughout your code.
//
// Example:
//
//	const (
//	    SearchMappingName Name = "search"
//	    PageParamName     Name = "page"
//	)
type Name = string

// Param is the basic leaf Mapping created by primitive constructors like
// Raw, String, Int, Float, Enum, and Constant. It pairs a parse function
// with its serialize inverse under a name, typically the parameter key.
//
// The function fields are intentionally private so params are only created
// through the provided constructors, keeping the parse and serialize sides
// consistent with each other.
type Param[T any] struct {
	parse     func(Cursor) (Cursor, Result[T])
	serialize func(T, url.Values) url.Values
	name      Name
}

// Parse implements the Mapping interface.
func (p Param[T]) Parse(c Cursor) (Cursor, Result[T]) {
	return p.parse(c)
}

// Serialize implements the Mapping interface.
func (p Param[T]) Serialize(value T, out url.Values) url.Values {
	return p.serialize(value, out)
}

// Name returns the name of the param for debugging and error reporting.
// For primitives this is the parameter key.
func (p Param[T]) Name() Name {
	return p.name
}

// addValue appends one raw occurrence of key to out, allocating the
// collection when needed.
func addValue(out url.Values, key, value string) url.Values {
	if out == nil {
		out = url.Values{}
	}
	out[key] = append(out[key], value)
	return out
}

// ensureValues returns out, allocating an empty collection when out is nil
// so Serialize never returns a nil map.
func ensureValues(out url.Values) url.Values {
	if out == nil {
		return url.Values{}
	}
	return out
}
