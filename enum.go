package queryz

import (
	"net/url"
	"slices"
	"strconv"
)

// Enum creates a Param constrained to membership in allowed. A value
// outside the set fails with ErrMembership and the error message lists the
// allowed values. Serializing writes the value verbatim.
//
// Example:
//
//	sort := queryz.Enum("sort", "asc", "desc")
//	// sort=asc parses to "asc"; sort=newest fails listing asc, desc
//
// At least one allowed value is required; an empty set could never parse
// and is a configuration error.
func Enum(key Name, allowed ...string) Param[string] {
	if len(allowed) == 0 {
		panic("queryz: Enum requires at least one allowed value")
	}
	allowed = slices.Clone(allowed)

	return Param[string]{
		name: key,
		parse: func(c Cursor) (Cursor, Result[string]) {
			c, r := c.Take(key)
			return c, BindResult(r, func(raw string) Result[string] {
				if !slices.Contains(allowed, raw) {
					return Failure[string](&ParseError{
						Err:     ErrMembership,
						Key:     key,
						Value:   raw,
						Allowed: slices.Clone(allowed),
					})
				}
				return Success(raw)
			})
		},
		serialize: func(value string, out url.Values) url.Values {
			return addValue(out, key, value)
		},
	}
}

// Bool creates a mapping for a boolean parameter accepting exactly "true"
// or "false". Any other literal fails with ErrMembership listing both.
func Bool(key Name) Adapter[string, bool] {
	return Convert(key, Enum(key, "true", "false"),
		func(s string) bool { return s == "true" },
		strconv.FormatBool,
	)
}
