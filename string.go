package queryz

import "net/url"

// Escaper is the external string-escaping collaborator used by String.
// Escape and Unescape must be exact inverses on valid input; Unescape
// reports malformed escape sequences as an error.
type Escaper interface {
	Escape(string) string
	Unescape(string) (string, error)
}

// DefaultEscaper performs standard percent-encoding of query components,
// backed by net/url.
var DefaultEscaper Escaper = queryEscaper{}

type queryEscaper struct{}

func (queryEscaper) Escape(s string) string { return url.QueryEscape(s) }

func (queryEscaper) Unescape(s string) (string, error) { return url.QueryUnescape(s) }

// Raw creates a Param that reads the next unread occurrence of key
// verbatim and writes values back untouched. Most callers want String,
// which layers percent-decoding on top; Raw is for values with their own
// wire format, like the already-encoded output of another system.
func Raw(key Name) Param[string] {
	return Param[string]{
		name: key,
		parse: func(c Cursor) (Cursor, Result[string]) {
			return c.Take(key)
		},
		serialize: func(value string, out url.Values) url.Values {
			return addValue(out, key, value)
		},
	}
}

// String creates a Param for a percent-encoded string parameter. Parsing
// decodes the raw occurrence with DefaultEscaper; serializing encodes
// before writing. Malformed escapes fail with ErrBadEscape.
//
// Example:
//
//	q := queryz.String("q")
//	// q=hello%20world parses to "hello world"
func String(key Name) Param[string] {
	return StringEscaped(key, DefaultEscaper)
}

// StringEscaped is String with a caller-supplied Escaper, for inputs that
// use a different escaping convention such as form encoding of spaces.
func StringEscaped(key Name, esc Escaper) Param[string] {
	return Param[string]{
		name: key,
		parse: func(c Cursor) (Cursor, Result[string]) {
			c, r := c.Take(key)
			return c, BindResult(r, func(raw string) Result[string] {
				decoded, err := esc.Unescape(raw)
				if err != nil {
					return Failure[string](&ParseError{
						Err:    ErrBadEscape,
						Key:    key,
						Value:  raw,
						Detail: err.Error(),
					})
				}
				return Success(decoded)
			})
		},
		serialize: func(value string, out url.Values) url.Values {
			return addValue(out, key, esc.Escape(value))
		},
	}
}
