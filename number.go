package queryz

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Int creates a Param for a base-10 integer parameter.
//
// Parsing reads the longest leading run of sign and digits, so values that
// carry trailing garbage still yield a number: "42.5" parses to 42. When the
// canonical form of the parsed number differs from the raw input the Result
// is a warning, not an error - shared links survive format drift while the
// divergence is still flagged. Only inputs with no leading digits at all,
// like "abc", fail with ErrInvalidFormat.
//
// Serializing always writes the canonical base-10 form.
func Int(key Name) Param[int] {
	return Param[int]{
		name: key,
		parse: func(c Cursor) (Cursor, Result[int]) {
			c, r := c.Take(key)
			return c, BindResult(r, func(raw string) Result[int] {
				prefix, ok := intPrefix(raw)
				if !ok {
					return Failure[int](&ParseError{
						Err:    ErrInvalidFormat,
						Key:    key,
						Value:  raw,
						Detail: "expected an integer",
					})
				}
				n, err := strconv.Atoi(prefix)
				if err != nil {
					return Failure[int](&ParseError{
						Err:    ErrInvalidFormat,
						Key:    key,
						Value:  raw,
						Detail: "integer out of range",
					})
				}
				canonical := strconv.Itoa(n)
				if canonical != raw {
					return Warning(n, lossyWarning(key, raw, canonical))
				}
				return Success(n)
			})
		},
		serialize: func(value int, out url.Values) url.Values {
			return addValue(out, key, strconv.Itoa(value))
		},
	}
}

// Float creates a Param for a floating-point parameter. It follows the same
// pattern as Int but permits fractional and exponential forms: the longest
// leading run of float syntax is parsed, a non-canonical raw form downgrades
// to a warning, and input with no leading number fails with ErrInvalidFormat.
//
// Serializing writes the shortest form that round-trips exactly.
func Float(key Name) Param[float64] {
	return Param[float64]{
		name: key,
		parse: func(c Cursor) (Cursor, Result[float64]) {
			c, r := c.Take(key)
			return c, BindResult(r, func(raw string) Result[float64] {
				prefix, ok := floatPrefix(raw)
				if !ok {
					return Failure[float64](&ParseError{
						Err:    ErrInvalidFormat,
						Key:    key,
						Value:  raw,
						Detail: "expected a number",
					})
				}
				v, err := strconv.ParseFloat(prefix, 64)
				if err != nil {
					return Failure[float64](&ParseError{
						Err:    ErrInvalidFormat,
						Key:    key,
						Value:  raw,
						Detail: "number out of range",
					})
				}
				canonical := strconv.FormatFloat(v, 'g', -1, 64)
				if canonical != raw {
					return Warning(v, lossyWarning(key, raw, canonical))
				}
				return Success(v)
			})
		},
		serialize: func(value float64, out url.Values) url.Values {
			return addValue(out, key, strconv.FormatFloat(value, 'g', -1, 64))
		},
	}
}

// lossyWarning renders the warning attached to readable but non-canonical
// numeric values.
func lossyWarning(key Name, raw, canonical string) string {
	return fmt.Sprintf("parameter %q: %v: %q was read as %s", key, ErrLossyFormat, raw, canonical)
}

// intPrefix returns the longest leading sign-and-digits run of s.
// Leading whitespace is skipped; ok is false when no digits follow.
func intPrefix(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return "", false
	}
	return s[:i], true
}

// floatPrefix returns the longest leading run of s that forms a decimal
// float: sign, digits, optional fraction, optional exponent. ok is false
// when the mantissa has no digits.
func floatPrefix(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return "", false
	}
	// An exponent only counts when digits follow the marker.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	return s[:i], true
}
