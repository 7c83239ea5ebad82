package avroio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmere/avro"
)

// Vectors lifted from original_source/src/encoding.rs's
// read_unsigned_varint/decode_zigzag_integers/read_longs tests, which
// are themselves drawn from the Avro 1.10.1 specification's own
// example table.
func TestLongZigZagVarint(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, -1},
		{[]byte{0x02}, 1},
		{[]byte{0x03}, -2},
		{[]byte{0x7f}, -64},
		{[]byte{0x80, 0x01}, 64},
	}
	for _, c := range cases {
		d := NewDecoder(NewSource(bytes.NewReader(c.bytes), 16, 1024))
		got, err := d.Long()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestIntRejectsValueOutOfInt32Range(t *testing.T) {
	// 2^31, zig-zag encoded as a 5-byte varint: accepted by Long but
	// out of int's range.
	input := []byte{0x80, 0x80, 0x80, 0x80, 0x10}
	d := NewDecoder(NewSource(bytes.NewReader(input), 16, 1024))
	_, err := d.Int()
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.MalformedData, aerr.Kind)
}

func TestIntRejectsVarintOverFiveByteBudget(t *testing.T) {
	// Six continuation-flagged bytes followed by a terminator: too
	// long for int even though Long would happily decode it.
	input := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	d := NewDecoder(NewSource(bytes.NewReader(input), 16, 1024))
	_, err := d.Int()
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.MalformedData, aerr.Kind)
}

func TestIntAcceptsBoundaryValues(t *testing.T) {
	input := append(encodeLong(int64(2147483647)), encodeLong(int64(-2147483648))...)
	d := NewDecoder(NewSource(bytes.NewReader(input), 16, 1024))
	v1, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), v1)
	v2, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(-2147483648), v2)
}

func TestLongTruncatedIsUnexpectedEOF(t *testing.T) {
	d := NewDecoder(NewSource(bytes.NewReader(nil), 16, 1024))
	_, err := d.Long()
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.UnexpectedEOF, aerr.Kind)
}

func TestBoolDecode(t *testing.T) {
	d := NewDecoder(NewSource(bytes.NewReader([]byte{0x00, 0x01, 0x00}), 16, 1024))
	for _, want := range []bool{false, true, false} {
		got, err := d.Bool()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestStringDecode(t *testing.T) {
	input := []byte{0x06, 'f', 'o', 'o', 0x0c, 0xe2, 0x98, 0x83, 0xe2, 0x98, 0x83}
	d := NewDecoder(NewSource(bytes.NewReader(input), 64, 1024))
	s1, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "foo", s1)
	s2, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "☃☃", s2)
}

func TestMetadataBlockWithNegativeCountSizePrefix(t *testing.T) {
	input := []byte{
		0x04, // 2 key/value pairs in this block
		0x06, 'f', 'o', 'o',
		0x06, 'b', 'a', 'r',
		0x06, 'b', 'a', 'z',
		0x06, 'b', 'a', 't',
		0x01, // 1 pair, with a negative count so a byte-size follows
		0x18, // block is 12 bytes long
		0x0a, 'h', 'e', 'l', 'l', 'o',
		0x0a, 'w', 'o', 'r', 'l', 'd',
		0x00, // terminating empty block
	}
	d := NewDecoder(NewSource(bytes.NewReader(input), 64, 1024))
	meta, err := d.Metadata()
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), meta["foo"])
	assert.Equal(t, []byte("bat"), meta["baz"])
	assert.Equal(t, []byte("world"), meta["hello"])
}
