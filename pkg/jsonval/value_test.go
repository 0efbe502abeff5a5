package jsonval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	raw := `{"title":"Move a couch","budget":2500,"urgent":true,"photos":["a.jpg","b.jpg"],"floor":null,"cargo":{"length":85}}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	assert.Equal(t, KindObject, v.Kind())

	title, ok := v.GetString("title")
	assert.True(t, ok)
	assert.Equal(t, "Move a couch", title)

	budget, ok := v.Get("budget")
	require.True(t, ok)
	n, ok := budget.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 2500.0, n)

	urgent, ok := v.GetBool("urgent")
	assert.True(t, ok)
	assert.True(t, urgent)

	photos, ok := v.Get("photos")
	require.True(t, ok)
	items, ok := photos.AsArray()
	require.True(t, ok)
	require.Len(t, items, 2)
	first, _ := items[0].AsString()
	assert.Equal(t, "a.jpg", first)

	floor, ok := v.Get("floor")
	require.True(t, ok)
	assert.True(t, floor.IsNull())

	cargo, ok := v.Get("cargo")
	require.True(t, ok)
	length, ok := cargo.Get("length")
	require.True(t, ok)
	n, _ = length.AsNumber()
	assert.Equal(t, 85.0, n)

	// re-marshal and re-parse, the structure must survive
	out, err := json.Marshal(v)
	require.NoError(t, err)
	var again Value
	require.NoError(t, json.Unmarshal(out, &again))
	title, _ = again.GetString("title")
	assert.Equal(t, "Move a couch", title)
}

func TestValueAccessorsRejectWrongKind(t *testing.T) {
	v := String("hello")
	_, ok := v.AsNumber()
	assert.False(t, ok)
	_, ok = v.AsArray()
	assert.False(t, ok)
	_, ok = v.Get("key")
	assert.False(t, ok)
	assert.Nil(t, v.Keys())

	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestFromInterface(t *testing.T) {
	v := FromInterface(map[string]interface{}{
		"n":    float64(3),
		"s":    "x",
		"b":    false,
		"list": []interface{}{"a", float64(1)},
		"nil":  nil,
	})
	require.Equal(t, KindObject, v.Kind())
	n, _ := v.Get("n")
	num, ok := n.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 3.0, num)
	null, _ := v.Get("nil")
	assert.True(t, null.IsNull())
}

func TestDocumentClone(t *testing.T) {
	doc := Document{"photos": Array([]Value{String("a.jpg")})}
	clone := doc.Clone()
	clone["photos"] = String("replaced")

	photos, ok := doc.Get("photos")
	require.True(t, ok)
	_, ok = photos.AsArray()
	assert.True(t, ok, "clone mutation must not leak into the original")
}
