// Package value models JSON-like configuration trees as an explicit tagged
// variant (object, array, scalar) and implements the deep merge used for
// settings and hook configuration.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
)

// Kind identifies which branch of the variant a Value holds.
type Kind int

const (
	// KindScalar is a string, number, boolean or null.
	KindScalar Kind = iota
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is a string-keyed map that remembers key insertion order.
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "scalar"
	}
}

// Value is a node in a JSON-like tree.
// The zero Value is the scalar null.
type Value struct {
	kind   Kind
	scalar any
	items  []Value
	keys   []string
	fields map[string]Value
}

// Null returns the null scalar.
func Null() Value { return Value{} }

// String returns a string scalar.
func String(s string) Value { return Value{scalar: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{scalar: b} }

// Number returns a numeric scalar.
func Number(n json.Number) Value { return Value{scalar: n} }

// Array returns an array holding items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value(nil), items...)}
}

// Object returns an empty object.
func Object() Value {
	return Value{kind: KindObject, fields: map[string]Value{}}
}

// Kind reports the branch held by v.
func (v Value) Kind() Kind { return v.kind }

// IsObject reports whether v is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsArray reports whether v is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// Scalar returns the scalar payload (string, json.Number, bool or nil).
func (v Value) Scalar() any { return v.scalar }

// Str returns the payload of a string scalar.
func (v Value) Str() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	s, ok := v.scalar.(string)
	return s, ok
}

// Items returns the elements of an array. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Keys returns object keys in insertion order. The slice must not be modified.
func (v Value) Keys() []string { return v.keys }

// Len returns the number of elements or fields.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.keys)
	}
	return 0
}

// Get returns the field stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Set stores field under key, appending the key if it is new.
// Set panics if v is not an object.
func (v *Value) Set(key string, field Value) {
	if v.kind != KindObject {
		panic("value: Set on " + v.kind.String())
	}
	if v.fields == nil {
		v.fields = map[string]Value{}
	}
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = field
}

// Append adds items to an array. Append panics if v is not an array.
func (v *Value) Append(items ...Value) {
	if v.kind != KindArray {
		panic("value: Append on " + v.kind.String())
	}
	v.items = append(v.items, items...)
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := Value{kind: KindArray, items: make([]Value, len(v.items))}
		for i, item := range v.items {
			out.items[i] = item.Clone()
		}
		return out
	case KindObject:
		out := Value{kind: KindObject, keys: append([]string(nil), v.keys...), fields: make(map[string]Value, len(v.fields))}
		for k, f := range v.fields {
			out.fields[k] = f.Clone()
		}
		return out
	}
	return v
}

// Equal reports whether a and b hold the same tree.
// Object comparison ignores key order; numbers compare by their text.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, fa := range a.fields {
			fb, ok := b.fields[k]
			if !ok || !Equal(fa, fb) {
				return false
			}
		}
		return true
	}
	return scalarsEqual(a.scalar, b.scalar)
}

func scalarsEqual(a, b any) bool {
	na, aNum := numberText(a)
	nb, bNum := numberText(b)
	if aNum || bNum {
		return aNum && bNum && numbersEqual(na, nb)
	}
	return a == b
}

func numberText(x any) (string, bool) {
	switch n := x.(type) {
	case json.Number:
		return n.String(), true
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), true
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// numberPrecision keeps integers of well over a hundred digits distinct.
const numberPrecision = 512

// numbersEqual compares decimal texts by value, so 1 and 1.0 match while
// large integers differing in the last digit do not.
func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	x, _, err := big.ParseFloat(a, 10, numberPrecision, big.ToNearestEven)
	if err != nil {
		return false
	}
	y, _, err := big.ParseFloat(b, 10, numberPrecision, big.ToNearestEven)
	if err != nil {
		return false
	}
	return x.Cmp(y) == 0
}

// FromAny converts the output of encoding/json (or any map/slice tree of the
// same shape) into a Value. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t.Clone(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return Number(json.Number(fmt.Sprint(t))), nil
	case []any:
		out := Array()
		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			out.items = append(out.items, v)
		}
		return out, nil
	case []string:
		out := Array()
		for _, item := range t {
			out.items = append(out.items, String(item))
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := Object()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			out.Set(k, v)
		}
		return out, nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := Object()
		for _, k := range keys {
			out.Set(k, String(t[k]))
		}
		return out, nil
	}
	return Value{}, fmt.Errorf("value: unsupported type %T", x)
}

// Interface converts v back into plain Go values (map[string]any, []any,
// string, json.Number, bool, nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			out[k] = f.Interface()
		}
		return out
	}
	return v.scalar
}

// Parse decodes JSON text, preserving object key order and number text.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decode(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("value: unexpected data after top-level value")
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("value: object key is %T", keyTok)
				}
				field, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, field)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return obj, nil
		case '[':
			arr := Array()
			for dec.More() {
				item, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return arr, nil
		}
		return Value{}, fmt.Errorf("value: unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("value: unexpected token %v", tok)
}

// MarshalJSON implements json.Marshaler. Object keys keep insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := Encode(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	data, err := Encode(v.scalar)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// Encode is json.Marshal without HTML escaping, so rule text such as "->"
// survives unchanged.
func Encode(x any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(x); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
