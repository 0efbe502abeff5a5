// Package jsonval models the backend's schemaless announcement payload as a
// tagged-union JSON value. Accessors return ok=false on type mismatch instead
// of panicking, because the per-category schema evolves server-side without
// client releases.
package jsonval

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the possible JSON value types.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

// Value is a dynamically typed JSON value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  map[string]Value
	arr  []Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object wraps a map. The map is not copied.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Array wraps a slice. The slice is not copied.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Kind reports the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsObject returns the underlying map when the value is an object.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// AsArray returns the underlying slice when the value is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Get looks up a key on an object value. Missing keys and non-object
// receivers both report ok=false.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[key]
	return child, ok
}

// GetString is a convenience for Get followed by AsString.
func (v Value) GetString(key string) (string, bool) {
	child, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return child.AsString()
}

// GetBool is a convenience for Get followed by AsBool.
func (v Value) GetBool(key string) (bool, bool) {
	child, ok := v.Get(key)
	if !ok {
		return false, false
	}
	return child.AsBool()
}

// Keys returns the sorted keys of an object value.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	default:
		return nil, fmt.Errorf("jsonval: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromInterface(raw)
	return nil
}

// FromInterface converts the result of a generic json.Unmarshal into a Value.
func FromInterface(raw interface{}) Value { return fromInterface(raw) }

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, child := range t {
			obj[k] = fromInterface(child)
		}
		return Object(obj)
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, child := range t {
			arr = append(arr, fromInterface(child))
		}
		return Array(arr)
	default:
		return Null()
	}
}

// Document is the open field-name → value mapping carried by announcements.
type Document map[string]Value

// Get returns the value stored under key.
func (d Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d[key]
	return v, ok
}

// GetString returns the string stored under key, if any.
func (d Document) GetString(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
