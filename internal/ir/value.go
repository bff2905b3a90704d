package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the values an event node can store.
// Only Null, String, Int, Bool, Array and Object implement it.
// There is no float variant: the target VM is integer-only.
type Value interface {
	storedValue()
}

// Null is an explicit null so every Value satisfies the sealed interface.
type Null struct{}

func (Null) storedValue() {}

// String is a stored string (variable handles, actor ids, text fields).
type String string

func (String) storedValue() {}

// Int is a stored integer. Always int64.
type Int int64

func (Int) storedValue() {}

// Bool is a stored boolean (checkbox, collapsable and __ flags).
type Bool bool

func (Bool) storedValue() {}

// Array is an ordered list of stored values.
type Array []Value

func (Array) storedValue() {}

// Object maps keys to stored values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) storedValue() {}

// SortedKeys returns the object's keys in UTF-16 code unit order.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 orders keys by UTF-16 code units, which is what RFC 8785
// requires. Plain Go string comparison orders by UTF-8 bytes and disagrees for
// characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < min(len(a16), len(b16)); i++ {
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

// FromAny converts a decoded YAML or JSON value into a Value.
// Integral floats (3.0) are accepted because YAML and JSON decoders may
// produce them; fractional floats are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		return intFromFloat(val)
	case float32:
		return intFromFloat(float64(val))
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return nil, fmt.Errorf("invalid number %q", val)
			}
			return intFromFloat(f)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	case map[any]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", key, err)
			}
			obj[key] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported stored value type: %T", v)
	}
}

func intFromFloat(f float64) (Value, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("fractional numbers are not supported: %v", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("number out of int64 range: %v", f)
	}
	return Int(int64(f)), nil
}

// ToAny converts a Value back into plain Go values (for display and YAML output).
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// Describe renders a Value in a short human form for labels and error messages.
func Describe(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		data, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%v", ToAny(val))
		}
		return string(data)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Object.
// Numbers are decoded with UseNumber so large integers keep their precision.
func (obj *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	conv, err := FromAny(raw)
	if err != nil {
		return err
	}
	if raw == nil {
		*obj = nil
		return nil
	}
	*obj = conv.(Object)
	return nil
}

// UnmarshalYAML implements yaml.v3's obsolete-style Unmarshaler for Object so
// that the ir package does not import yaml.
func (obj *Object) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	conv, err := FromAny(raw)
	if err != nil {
		return err
	}
	if raw == nil {
		*obj = nil
		return nil
	}
	*obj = conv.(Object)
	return nil
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
// This is not the canonical form; use MarshalCanonical for hashing.
func (obj Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToAny(obj))
}
