package canon

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"unicode/utf16"
)

// maxDepth bounds nesting so self-referencing maps fail instead of recursing forever.
const maxDepth = 64

// Value is a sealed interface over the representable snapshot shapes.
// Only Null, String, Int, Float, Bool, Array, and Object implement it.
type Value interface {
	canonValue()
}

// Null represents an absent value.
type Null struct{}

func (Null) canonValue() {}

// String represents a text value.
type String string

func (String) canonValue() {}

// Int represents an integral number.
type Int int64

func (Int) canonValue() {}

// Float represents a finite, non-integral number.
type Float float64

func (Float) canonValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) canonValue() {}

// Array represents an ordered sequence.
type Array []Value

func (Array) canonValue() {}

// Object represents a mapping from string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// SortedKeys returns keys ordered by UTF-16 code units.
// Go's string comparison orders by UTF-8 bytes, which differs above U+FFFF.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// UnsupportedError reports a value whose shape cannot be serialized.
type UnsupportedError struct {
	Path   string // location inside the value, "$" for the root
	Type   string // Go type of the offending value
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cannot snapshot %s at %s: %s", e.Type, e.Path, e.Reason)
}

// FromGo converts an arbitrary Go value to a Value.
//
// Pointers and interfaces are followed, nil becomes Null, and nil maps and
// slices become empty containers so that nil and empty snapshot identically.
func FromGo(v any) (Value, error) {
	return fromReflect(reflect.ValueOf(v), "$", 0)
}

func fromReflect(rv reflect.Value, path string, depth int) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	if depth > maxDepth {
		return nil, &UnsupportedError{Path: path, Type: rv.Type().String(), Reason: "nesting too deep (cyclic value?)"}
	}

	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case Value:
			return x, nil
		case *big.Int:
			if x == nil {
				return Null{}, nil
			}
			if !x.IsInt64() {
				return nil, &UnsupportedError{Path: path, Type: "*big.Int", Reason: "out of int64 range"}
			}
			return Int(x.Int64()), nil
		case json.Number:
			if i, err := x.Int64(); err == nil {
				return Int(i), nil
			}
			f, err := x.Float64()
			if err != nil {
				return nil, &UnsupportedError{Path: path, Type: "json.Number", Reason: err.Error()}
			}
			return fromFloat(f, path, "json.Number")
		}
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return fromReflect(rv.Elem(), path, depth+1)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, &UnsupportedError{Path: path, Type: rv.Type().String(), Reason: "out of int64 range"}
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return fromFloat(rv.Float(), path, rv.Type().String())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		arr := make(Array, rv.Len())
		for i := range arr {
			elem, err := fromReflect(rv.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = elem
		}
		return arr, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &UnsupportedError{Path: path, Type: rv.Type().String(), Reason: "map keys must be strings"}
		}
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			elem, err := fromReflect(iter.Value(), fmt.Sprintf("%s[%q]", path, k), depth+1)
			if err != nil {
				return nil, err
			}
			obj[k] = elem
		}
		return obj, nil
	default:
		return nil, &UnsupportedError{Path: path, Type: rv.Type().String(), Reason: "unsupported kind " + rv.Kind().String()}
	}
}

func fromFloat(f float64, path, typ string) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &UnsupportedError{Path: path, Type: typ, Reason: fmt.Sprintf("non-finite number %v", f)}
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Int(int64(f)), nil
	}
	return Float(f), nil
}
