package toml

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"sort"
	"strings"
)

// ErrUnknownKey is wrapped when strict decoding meets a key with no matching field
var ErrUnknownKey = errors.New("unknown key")

// Unmarshal parses TOML data into v; keys without a matching field are ignored
func Unmarshal(data []byte, v any) error {
	return unmarshal(data, v, false)
}

// UnmarshalStrict is Unmarshal that rejects keys without a matching field
func UnmarshalStrict(data []byte, v any) error {
	return unmarshal(data, v, true)
}

// DecodeFile reads and strictly decodes a TOML file
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := UnmarshalStrict(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func unmarshal(data []byte, v any, strict bool) error {
	tree, err := NewParser(data).Parse()
	if err != nil {
		return err
	}
	d := decoder{strict: strict}
	return d.decode(tree, v)
}

// decoder maps a parsed tree onto v using `toml` tags, falling back to field names
type decoder struct {
	strict bool
}

func (d decoder) decode(tree any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return fmt.Errorf("toml: target must be a non-nil pointer, got %T", v)
	}
	return d.value(tree, val.Elem(), "")
}

func (d decoder) value(data any, val reflect.Value, path string) error {
	if data == nil {
		return nil
	}
	fail := func(want string) error {
		return fmt.Errorf("%s: cannot decode %T into %s", pathName(path), data, want)
	}

	switch val.Kind() {
	case reflect.Pointer:
		elem := reflect.New(val.Type().Elem())
		if err := d.value(data, elem.Elem(), path); err != nil {
			return err
		}
		val.Set(elem)

	case reflect.Struct:
		table, ok := data.(map[string]any)
		if !ok {
			return fail("table")
		}
		return d.structure(table, val, path)

	case reflect.Slice, reflect.Array:
		items, ok := asList(data)
		if !ok {
			return fail("array")
		}
		if val.Kind() == reflect.Array {
			if len(items) != val.Len() {
				return fmt.Errorf("%s: need %d elements, got %d", pathName(path), val.Len(), len(items))
			}
		} else {
			val.Set(reflect.MakeSlice(val.Type(), len(items), len(items)))
		}
		for i, item := range items {
			if err := d.value(item, val.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%s: only map[string]T is supported", pathName(path))
		}
		table, ok := data.(map[string]any)
		if !ok {
			return fail("table")
		}
		m := reflect.MakeMapWithSize(val.Type(), len(table))
		for k, item := range table {
			elem := reflect.New(val.Type().Elem()).Elem()
			if err := d.value(item, elem, join(path, k)); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(val.Type().Key()), elem)
		}
		val.Set(m)

	case reflect.Interface:
		val.Set(reflect.ValueOf(data))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := data.(int64)
		if !ok {
			return fail("integer")
		}
		if val.OverflowInt(n) {
			return fmt.Errorf("%s: %d out of range for %s", pathName(path), n, val.Type())
		}
		val.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := data.(int64)
		if !ok {
			return fail("integer")
		}
		if n < 0 || val.OverflowUint(uint64(n)) {
			return fmt.Errorf("%s: %d out of range for %s", pathName(path), n, val.Type())
		}
		val.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		switch f := data.(type) {
		case float64:
			if val.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 {
				return fmt.Errorf("%s: %g out of range for float32", pathName(path), f)
			}
			val.SetFloat(f)
		case int64:
			val.SetFloat(float64(f))
		default:
			return fail("float")
		}

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return fail("string")
		}
		val.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return fail("bool")
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("%s: unsupported field type %s", pathName(path), val.Type())
	}
	return nil
}

func (d decoder) structure(table map[string]any, val reflect.Value, path string) error {
	typ := val.Type()
	seen := make(map[string]bool, len(table))

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Name
		if tag, _, _ := strings.Cut(field.Tag.Get("toml"), ","); tag != "" {
			if tag == "-" {
				continue
			}
			key = tag
		}

		item, ok := table[key]
		if !ok {
			continue
		}
		seen[key] = true
		if err := d.value(item, val.Field(i), join(path, key)); err != nil {
			return err
		}
	}

	if !d.strict {
		return nil
	}
	var unknown []string
	for k := range table {
		if !seen[k] {
			unknown = append(unknown, join(path, k))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
	}
	return nil
}

func asList(data any) ([]any, bool) {
	switch v := data.(type) {
	case []any:
		return v, true
	case []map[string]any:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items, true
	}
	return nil, false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func pathName(path string) string {
	if path == "" {
		return "document"
	}
	return path
}
