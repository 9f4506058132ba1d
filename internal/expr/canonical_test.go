package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	doc := map[string]any{
		"roots":    []any{"1"},
		"nodes":    map[string]any{"1": map[string]any{"type": "EqualityQuery"}},
		"children": map[string]any{},
		"parents":  map[string]any{},
	}

	data, err := MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"children":{},"nodes":{"1":{"type":"EqualityQuery"}},"parents":{},"roots":["1"]}`, string(data))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	doc := map[string]any{"b": int64(2), "a": int64(1), "c": true}

	first, err := MarshalCanonical(doc)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(doc)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"op": "<"})
	require.NoError(t, err)
	assert.Equal(t, `{"op":"<"}`, string(data))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	data, err := MarshalCanonical("a b")
	require.NoError(t, err)
	assert.Equal(t, "\"a b\"", string(data))

	// A literal backslash followed by the text "u2028" stays escaped.
	data, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(data))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"v": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"v": nil})
	assert.Error(t, err)
}
