package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_PreservesInsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("zeta", Number(1))
	obj.Set("alpha", Number(2))
	obj.Set("zeta", Number(3))

	assert.Equal(t, []string{"zeta", "alpha"}, obj.Keys())
	v, ok := obj.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, Number(3), v)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta": 3, "alpha": 2}`, string(data))
	assert.Equal(t, `{"zeta":3,"alpha":2}`, string(data))
}

func TestStringify(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Array{Number(1), String("x")})

	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"true", Bool(true), "true"},
		{"integer", Number(200), "200"},
		{"negative", Number(-7), "-7"},
		{"fraction", Number(1.5), "1.5"},
		{"string", String("hello"), "hello"},
		{"array", Array{Number(1), Number(2)}, "[1,2]"},
		{"object", obj, `{"a":[1,"x"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	left := NewObject()
	left.Set("a", Number(1))
	left.Set("b", Array{String("x"), Null{}})

	right := NewObject()
	right.Set("b", Array{String("x"), Null{}})
	right.Set("a", Number(1))

	other := NewObject()
	other.Set("a", Number(1))

	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.False(t, Equal(Number(200), String("200")))
	assert.True(t, Equal(left, right))
	assert.False(t, Equal(left, other))
	assert.True(t, Equal(nil, Null{}))
	assert.False(t, Equal(Array{Number(1)}, Array{Number(1), Number(1)}))
}

func TestIndex(t *testing.T) {
	arr := Array{String("first"), String("second"), String("third")}
	obj := NewObject()
	obj.Set("items", arr)
	obj.Set("200", String("ok"))

	tests := []struct {
		name      string
		container Value
		segment   string
		expected  Value
		found     bool
	}{
		{"array index", arr, "1", String("second"), true},
		{"negative index", arr, "-1", String("third"), true},
		{"index out of range", arr, "5", nil, false},
		{"non numeric on array", arr, "name", nil, false},
		{"object key", obj, "items", arr, true},
		{"numeric object key", obj, "200", String("ok"), true},
		{"missing key", obj, "missing", nil, false},
		{"scalar container", String("text"), "0", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Index(tt.container, tt.segment)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWalk(t *testing.T) {
	inner := NewObject()
	inner.Set("b", Number(7))
	root := NewObject()
	root.Set("a", inner)

	got, failed, ok := Walk(root, []string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, -1, failed)
	assert.Equal(t, Number(7), got)

	_, failed, ok = Walk(root, []string{"a", "c", "d"})
	assert.False(t, ok)
	assert.Equal(t, 1, failed)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw      string
		expected Value
	}{
		{"200", Int(200)},
		{"-7", Int(-7)},
		{"9007199254740993", Int(9007199254740993)},
		{"1.5", Number(1.5)},
		{"1e3", Number(1000)},
		{"18446744073709551616", Number(18446744073709551616)},
		{"abc", String("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNumber(tt.raw))
		})
	}
}

func TestInt(t *testing.T) {
	big := Int(9007199254740993)

	assert.Equal(t, KindNumber, big.Kind())
	assert.Equal(t, "9007199254740993", Stringify(big))
	assert.Equal(t, "[9007199254740993]", Stringify(Array{big}))
	assert.False(t, Equal(big, Int(9007199254740992)))
	assert.True(t, Equal(Int(200), Number(200)))
	assert.True(t, Equal(Number(200), Int(200)))
	assert.False(t, Equal(Int(200), Number(200.5)))
	assert.False(t, Equal(Int(200), String("200")))

	i, err := AsInt(Int(404))
	require.NoError(t, err)
	assert.Equal(t, 404, i)

	f, err := AsFloat(Int(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
}

func TestAsIntAndAsFloat(t *testing.T) {
	i, err := AsInt(String("200"))
	require.NoError(t, err)
	assert.Equal(t, 200, i)

	i, err = AsInt(Number(404))
	require.NoError(t, err)
	assert.Equal(t, 404, i)

	_, err = AsInt(Number(1.5))
	assert.Error(t, err)

	_, err = AsInt(String("abc"))
	assert.Error(t, err)

	f, err := AsFloat(String("0.25"))
	require.NoError(t, err)
	assert.Equal(t, 0.25, f)

	_, err = AsFloat(Bool(true))
	assert.Error(t, err)
}
