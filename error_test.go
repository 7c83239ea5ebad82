package avro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindAndUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := E(SchemaErrorKind, UnknownNamedType, Path("foo.Bar"), inner)
	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, SchemaErrorKind, aerr.Kind)
	assert.Equal(t, UnknownNamedType, aerr.Sub)
	assert.Equal(t, "foo.Bar", aerr.Path)
	assert.ErrorIs(t, err, inner)
}

func TestErrorFormatString(t *testing.T) {
	err := E(MalformedData, "bad count %d", 7)
	assert.Contains(t, err.Error(), "bad count 7")
	assert.Contains(t, err.Error(), "malformed data")
}

func TestCombineKeepsAllErrors(t *testing.T) {
	e1 := errors.New("one")
	e2 := errors.New("two")
	combined := Combine(e1, e2)
	require.Error(t, combined)
	assert.Contains(t, combined.Error(), "one")
	assert.Contains(t, combined.Error(), "two")
}

func TestSuggestNamedType(t *testing.T) {
	names := []string{"com.example.Foo", "com.example.Bar"}
	assert.Equal(t, "com.example.Foo", suggestNamedType("com.example.Fob", names))
	assert.Equal(t, "", suggestNamedType("anything", nil))
}
