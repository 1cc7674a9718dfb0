package queryz

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the query tag with sentinel
	sentinel.Tag("query")
}

// Struct derives an Object mapping for T from `query:"..."` struct tags,
// scanned via sentinel. Each tagged field becomes a registered Field in
// declaration order; untagged fields and fields tagged `query:"-"` are
// skipped.
//
// Supported field types and their mappings:
//   - string        -> String (or Enum with the enum option)
//   - int           -> Int
//   - float64       -> Float
//   - bool          -> Bool
//   - pointer to any of the above -> Optional of the scalar mapping
//   - slice of any of the above   -> NewArray of the scalar mapping
//
// Tag options follow the name, comma-separated:
//   - default=v  wraps the mapping with Default; v is parsed with the
//     field's type at build time, so a malformed default fails construction
//   - enum=a|b   constrains a string field to the listed values
//
// Example:
//
//	type Search struct {
//	    Query string   `query:"q"`
//	    Page  int      `query:"page,default=1"`
//	    Sort  string   `query:"sort,enum=asc|desc,default=asc"`
//	    Tags  []string `query:"tag"`
//	    After *string  `query:"after"`
//	    Debug bool     `query:"-"`
//	}
//	mapping, err := queryz.Struct[Search]("search")
//
// Any other field kind, or an option that contradicts the field type, is a
// construction error. Use MustStruct for wiring-time schemas where a bad
// tag should stop the program.
func Struct[T any](name Name) (*Object[T], error) {
	spec := sentinel.Scan[T]()
	obj := NewObject[T](name)

	for _, field := range spec.Fields {
		tag, ok := field.Tags["query"]
		if !ok || tag == "-" {
			continue
		}
		key, opts, err := parseQueryTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if key == "" {
			key = field.Name
		}
		bound, err := buildField[T](field, key, opts)
		if err != nil {
			return nil, err
		}
		obj.Register(bound)
	}

	if obj.Len() == 0 {
		return nil, fmt.Errorf("type %s has no query-tagged fields", spec.TypeName)
	}
	return obj, nil
}

// MustStruct is Struct but panics on a construction error. Intended for
// package-level schema variables where a bad tag is a programming error.
func MustStruct[T any](name Name) *Object[T] {
	obj, err := Struct[T](name)
	if err != nil {
		panic(fmt.Sprintf("queryz: MustStruct: %v", err))
	}
	return obj
}

// queryTagOptions holds the parsed options of one query tag.
type queryTagOptions struct {
	defaultVal string
	enum       []string
	hasDefault bool
}

// parseQueryTag splits a query tag into the parameter key and its options.
func parseQueryTag(tag string) (string, queryTagOptions, error) {
	parts := strings.Split(tag, ",")
	key := parts[0]
	var opts queryTagOptions

	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "default="):
			opts.hasDefault = true
			opts.defaultVal = strings.TrimPrefix(part, "default=")
		case strings.HasPrefix(part, "enum="):
			opts.enum = strings.Split(strings.TrimPrefix(part, "enum="), "|")
		default:
			return "", opts, fmt.Errorf("%w: unknown tag option %q", ErrInvalidFormat, part)
		}
	}
	return key, opts, nil
}

// buildField constructs the Field for one tagged struct field.
func buildField[T any](field sentinel.FieldMetadata, key string, opts queryTagOptions) (Field[T], error) {
	rt := field.ReflectType

	switch rt.Kind() {
	case reflect.String:
		m, err := stringMapping(key, opts)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return reflectField[T, string](field.Index, m), nil
	case reflect.Int:
		m, err := intMapping(key, opts)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return reflectField[T, int](field.Index, m), nil
	case reflect.Float64:
		m, err := floatMapping(key, opts)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return reflectField[T, float64](field.Index, m), nil
	case reflect.Bool:
		m, err := boolMapping(key, opts)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return reflectField[T, bool](field.Index, m), nil
	case reflect.Pointer:
		if opts.hasDefault {
			return nil, fmt.Errorf("field %s: default and pointer optionality are mutually exclusive", field.Name)
		}
		switch rt.Elem().Kind() {
		case reflect.String:
			m, err := stringMapping(key, opts)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			return reflectField[T, *string](field.Index, Optional(key, m)), nil
		case reflect.Int:
			return reflectField[T, *int](field.Index, Optional[int](key, Int(key))), nil
		case reflect.Float64:
			return reflectField[T, *float64](field.Index, Optional[float64](key, Float(key))), nil
		case reflect.Bool:
			return reflectField[T, *bool](field.Index, Optional[bool](key, Bool(key))), nil
		}
	case reflect.Slice:
		switch rt.Elem().Kind() {
		case reflect.String:
			m, err := stringMapping(key, opts)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			return reflectField[T, []string](field.Index, NewArray(key, m)), nil
		case reflect.Int:
			return reflectField[T, []int](field.Index, NewArray[int](key, Int(key))), nil
		case reflect.Float64:
			return reflectField[T, []float64](field.Index, NewArray[float64](key, Float(key))), nil
		case reflect.Bool:
			return reflectField[T, []bool](field.Index, NewArray[bool](key, Bool(key))), nil
		}
	}

	return nil, fmt.Errorf("field %s: unsupported kind %s", field.Name, rt.Kind())
}

// stringMapping builds the scalar mapping for a string field.
func stringMapping(key string, opts queryTagOptions) (Mapping[string], error) {
	var m Mapping[string]
	if len(opts.enum) > 0 {
		m = Enum(key, opts.enum...)
	} else {
		m = String(key)
	}
	if opts.hasDefault {
		if len(opts.enum) > 0 && !slices.Contains(opts.enum, opts.defaultVal) {
			return nil, fmt.Errorf("%w: default %q not in enum set", ErrMembership, opts.defaultVal)
		}
		m = Default(key, m, opts.defaultVal)
	}
	return m, nil
}

// intMapping builds the scalar mapping for an int field.
func intMapping(key string, opts queryTagOptions) (Mapping[int], error) {
	if len(opts.enum) > 0 {
		return nil, fmt.Errorf("%w: enum option requires a string field", ErrInvalidFormat)
	}
	var m Mapping[int] = Int(key)
	if opts.hasDefault {
		d, err := strconv.Atoi(opts.defaultVal)
		if err != nil {
			return nil, fmt.Errorf("%w: default %q is not an integer", ErrInvalidFormat, opts.defaultVal)
		}
		m = Default(key, m, d)
	}
	return m, nil
}

// floatMapping builds the scalar mapping for a float64 field.
func floatMapping(key string, opts queryTagOptions) (Mapping[float64], error) {
	if len(opts.enum) > 0 {
		return nil, fmt.Errorf("%w: enum option requires a string field", ErrInvalidFormat)
	}
	var m Mapping[float64] = Float(key)
	if opts.hasDefault {
		d, err := strconv.ParseFloat(opts.defaultVal, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: default %q is not a number", ErrInvalidFormat, opts.defaultVal)
		}
		m = Default(key, m, d)
	}
	return m, nil
}

// boolMapping builds the scalar mapping for a bool field.
func boolMapping(key string, opts queryTagOptions) (Mapping[bool], error) {
	if len(opts.enum) > 0 {
		return nil, fmt.Errorf("%w: enum option requires a string field", ErrInvalidFormat)
	}
	var m Mapping[bool] = Bool(key)
	if opts.hasDefault {
		d, err := strconv.ParseBool(opts.defaultVal)
		if err != nil {
			return nil, fmt.Errorf("%w: default %q is not a boolean", ErrInvalidFormat, opts.defaultVal)
		}
		m = Default(key, m, d)
	}
	return m, nil
}

// reflectField binds a mapping to a struct field through its index path.
// The setter writes into a fresh copy of the aggregate so parsed values
// never mutate a shared struct.
func reflectField[O, F any](index []int, mapping Mapping[F]) Field[O] {
	return Bind[O, F](mapping,
		func(o O) F {
			v, _ := reflect.ValueOf(o).FieldByIndex(index).Interface().(F)
			return v
		},
		func(o O, value F) O {
			rv := reflect.New(reflect.TypeOf(o))
			rv.Elem().Set(reflect.ValueOf(o))
			rv.Elem().FieldByIndex(index).Set(reflect.ValueOf(value))
			out, _ := rv.Elem().Interface().(O)
			return out
		},
	)
}
