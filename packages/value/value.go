package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one node of a JSON-like document. The set of implementations is
// closed: Null, Bool, Number, Int, String, Array and *Object.
type Value interface {
	Kind() Kind
	isValue()
}

type Null struct{}

type Bool bool

type Number float64

// Int is a number written without fraction or exponent. It keeps integers
// beyond 2^53 exact; it shares KindNumber with Number.
type Int int64

type String string

type Array []Value

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Number) Kind() Kind  { return KindNumber }
func (Int) Kind() Kind     { return KindNumber }
func (String) Kind() Kind  { return KindString }
func (Array) Kind() Kind   { return KindArray }
func (*Object) Kind() Kind { return KindObject }

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Number) isValue()  {}
func (Int) isValue()     {}
func (String) isValue()  {}
func (Array) isValue()   {}
func (*Object) isValue() {}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Object is a string-keyed mapping that remembers insertion order.
type Object struct {
	keys    []string
	members map[string]Value
}

func NewObject() *Object {
	return &Object{members: make(map[string]Value)}
}

// Set assigns key. A new key is appended; an existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if _, ok := o.members[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.members[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.members[key]
	return v, ok
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Range calls fn for every member in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.members[k]) {
			return
		}
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		member, err := json.Marshal(o.members[k])
		if err != nil {
			return nil, err
		}
		buf.Write(member)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseNumber converts the text of a JSON or YAML number. Integer literals
// that fit in 64 bits become Int; anything else becomes Number. Text that is
// not a number at all is kept as a String.
func ParseNumber(raw string) Value {
	raw = strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return String(raw)
	}
	return Number(f)
}

// Stringify renders v the way it is substituted into a template: scalars in
// their plain form, containers as compact JSON.
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Number:
		return formatNumber(float64(x))
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case String:
		return string(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal reports deep structural equality. Object member order is ignored.
// Number and Int compare by numeric value.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Number, Int:
		return numberEqual(a, b)
	case String:
		return x == b.(String)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y := b.(*Object)
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Range(func(k string, v Value) bool {
			other, ok := y.Get(k)
			if !ok || !Equal(v, other) {
				equal = false
			}
			return equal
		})
		return equal
	}
	return false
}

func numberEqual(a, b Value) bool {
	if x, ok := a.(Int); ok {
		if y, ok := b.(Int); ok {
			return x == y
		}
	}
	fa, errA := AsFloat(a)
	fb, errB := AsFloat(b)
	return errA == nil && errB == nil && fa == fb
}

// Index addresses one segment of a path inside container. A segment that
// parses as an integer indexes an Array (negative values count from the end);
// otherwise, or when container is an Object, the segment is a literal key.
func Index(container Value, segment string) (Value, bool) {
	switch c := container.(type) {
	case Array:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}
		if i < 0 {
			i += len(c)
		}
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case *Object:
		return c.Get(segment)
	default:
		return nil, false
	}
}

// Walk resolves segments one by one starting at root. On failure it returns
// the position of the segment that could not be resolved.
func Walk(root Value, segments []string) (Value, int, bool) {
	current := root
	for i, segment := range segments {
		next, ok := Index(current, segment)
		if !ok {
			return nil, i, false
		}
		current = next
	}
	return current, -1, true
}

// AsFloat coerces numbers and numeric strings.
func AsFloat(v Value) (float64, error) {
	switch x := v.(type) {
	case Number:
		return float64(x), nil
	case Int:
		return float64(x), nil
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to number", string(x))
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %s %s to number", kindOf(v), Stringify(v))
	}
}

// AsInt coerces integral numbers and integer strings.
func AsInt(v Value) (int, error) {
	switch x := v.(type) {
	case Number:
		f := float64(x)
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("cannot convert %s to integer", formatNumber(f))
		}
		return int(f), nil
	case Int:
		return int(x), nil
	case String:
		i, err := strconv.Atoi(strings.TrimSpace(string(x)))
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to integer", string(x))
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %s %s to integer", kindOf(v), Stringify(v))
	}
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}
