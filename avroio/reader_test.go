package avroio

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmere/avro"
)

// assertValueEqual compares two decoded avro.Value trees structurally
// and, on mismatch, renders both sides and reports a unified diff
// rather than testify's single-line "expected X, got Y" — the
// nested RecordValue/MapValue/UnionValue trees these fixtures produce
// are deep enough that a line-oriented diff finds the mismatched
// branch far faster than eyeballing two %#v dumps side by side.
func assertValueEqual(t *testing.T, want, got avro.Value) {
	t.Helper()
	if reflect.DeepEqual(want, got) {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(fmt.Sprintf("%#v\n", want)),
		B:        difflib.SplitLines(fmt.Sprintf("%#v\n", got)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	t.Fatalf("decoded value mismatch:\n%s", text)
}

// --- fixture-building helpers -------------------------------------------

func encodeLong(n int64) []byte {
	u := uint64(n<<1) ^ uint64(n>>63)
	var out []byte
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func encodeString(s string) []byte {
	out := encodeLong(int64(len(s)))
	return append(out, []byte(s)...)
}

func encodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

var sync16 = [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

// buildContainer assembles a minimal, bit-exact object container
// file: magic, a metadata map with avro.schema/avro.codec, a sync
// marker, and the given already-encoded blocks (each block is just
// its concatenated-record payload; buildContainer adds the
// count/byte-length framing and trailing sync marker).
func buildContainer(t *testing.T, schemaJSON, codec string, blockRecordCounts []int, blockPayloads [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(magic[:])

	meta := map[string][]byte{"avro.schema": []byte(schemaJSON)}
	if codec != "" {
		meta["avro.codec"] = []byte(codec)
	}
	writeMetadata(&buf, meta)
	buf.Write(sync16[:])

	for i, payload := range blockPayloads {
		raw := payload
		if codec == "deflate" {
			var compressed bytes.Buffer
			fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
			require.NoError(t, err)
			_, err = fw.Write(payload)
			require.NoError(t, err)
			require.NoError(t, fw.Close())
			raw = compressed.Bytes()
		}
		buf.Write(encodeLong(int64(blockRecordCounts[i])))
		buf.Write(encodeLong(int64(len(raw))))
		buf.Write(raw)
		buf.Write(sync16[:])
	}
	return buf.Bytes()
}

func writeMetadata(buf *bytes.Buffer, meta map[string][]byte) {
	if len(meta) > 0 {
		buf.Write(encodeLong(int64(len(meta))))
		for k, v := range meta {
			buf.Write(encodeString(k))
			buf.Write(encodeLong(int64(len(v))))
			buf.Write(v)
		}
	}
	buf.Write(encodeLong(0)) // terminating empty block
}

// --- spec.md §8.3 scenarios ---------------------------------------------

func TestContainerScenarioBoolean(t *testing.T) {
	payload := append(encodeBool(true), encodeBool(false)...)
	data := buildContainer(t, `"boolean"`, "", []int{2}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var got []bool
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, bool(v.(avro.BoolValue)))
	}
	assert.Equal(t, []bool{true, false}, got)
}

func TestContainerScenarioLong(t *testing.T) {
	values := []int64{42, -100, 0, -9223372036854775808, 9223372036854775807}
	var payload []byte
	for _, v := range values {
		payload = append(payload, encodeLong(v)...)
	}
	data := buildContainer(t, `"long"`, "", []int{len(values)}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var got []int64
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, int64(v.(avro.LongValue)))
	}
	assert.Equal(t, values, got)
}

func TestContainerScenarioString(t *testing.T) {
	values := []string{"foo", "bar", "", "☺"}
	var payload []byte
	for _, v := range values {
		payload = append(payload, encodeString(v)...)
	}
	data := buildContainer(t, `"string"`, "", []int{len(values)}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var got []string
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(v.(avro.StringValue)))
	}
	assert.Equal(t, values, got)
}

func TestContainerScenarioUnion(t *testing.T) {
	schema := `["null", "boolean"]`
	payload := append(encodeLong(0), append(encodeLong(1), encodeBool(true)...)...)
	data := buildContainer(t, schema, "", []int{2}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	v1, err := r.Next()
	require.NoError(t, err)
	u1 := v1.(avro.UnionValue)
	assert.Equal(t, 0, u1.Index)
	assert.Equal(t, avro.NullValue{}, u1.Inner)

	v2, err := r.Next()
	require.NoError(t, err)
	u2 := v2.(avro.UnionValue)
	assert.Equal(t, 1, u2.Index)
	assert.Equal(t, avro.BoolValue(true), u2.Inner)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestContainerScenarioRecord(t *testing.T) {
	schema := `{
		"type": "record", "name": "User",
		"fields": [
			{"name": "email", "type": "string"},
			{"name": "age", "type": "int"}
		]
	}`
	rec := func(email string, age int32) []byte {
		out := encodeString(email)
		return append(out, encodeLong(int64(age))...)
	}
	payload := append(rec("bloblaw@example.com", 42), rec("gmbluth@example.com", 16)...)
	data := buildContainer(t, schema, "", []int{2}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	v1, err := r.Next()
	require.NoError(t, err)
	want1 := avro.RecordValue{
		{Name: "email", Value: avro.StringValue("bloblaw@example.com")},
		{Name: "age", Value: avro.IntValue(42)},
	}
	assertValueEqual(t, want1, v1)

	v2, err := r.Next()
	require.NoError(t, err)
	want2 := avro.RecordValue{
		{Name: "email", Value: avro.StringValue("gmbluth@example.com")},
		{Name: "age", Value: avro.IntValue(16)},
	}
	assertValueEqual(t, want2, v2)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestContainerScenarioStringDeflate(t *testing.T) {
	values := []string{"foo", "bar", "foo"}
	var payload []byte
	for _, v := range values {
		payload = append(payload, encodeString(v)...)
	}
	data := buildContainer(t, `"string"`, "deflate", []int{len(values)}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	var got []string
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(v.(avro.StringValue)))
	}
	assert.Equal(t, values, got)
}

func TestContainerRejectsBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("notavro!")))
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.NotAnAvroFile, aerr.Kind)
}

func TestContainerRejectsCorruptSyncMarker(t *testing.T) {
	data := buildContainer(t, `"boolean"`, "", []int{1}, [][]byte{encodeBool(true)})
	// Flip a byte inside the first block's trailing sync marker.
	data[len(data)-1] ^= 0xff
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err) // the boolean itself decodes fine
	_, err = r.Next()
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.CorruptSyncMarker, aerr.Kind)
}

func TestContainerRejectsUnsupportedCodec(t *testing.T) {
	data := buildContainer(t, `"boolean"`, "snappy", []int{1}, [][]byte{encodeBool(true)})
	_, err := NewReader(bytes.NewReader(data))
	require.Error(t, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.UnsupportedCodec, aerr.Kind)
}

func TestContainerTruncatedBlockHeaderIsUnexpectedEOF(t *testing.T) {
	data := buildContainer(t, `"boolean"`, "", nil, nil)
	// Start of a new block's record-count varint (continuation bit
	// set), then the stream ends before it completes. This must not
	// be mistaken for a clean end-of-stream boundary.
	data = append(data, 0x80)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	var aerr *avro.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, avro.UnexpectedEOF, aerr.Kind)
}

func TestMaxRetainedBufIsBoundedRelativeToHostMemory(t *testing.T) {
	got := maxRetainedBuf()
	assert.GreaterOrEqual(t, got, defaultMaxBuffer)
	assert.LessOrEqual(t, got, maxRetainedBufCap)
}

func TestReaderDropsOversizedBlockBuffer(t *testing.T) {
	values := make([]string, 3)
	for i := range values {
		values[i] = strings.Repeat("x", 100)
	}
	var payload []byte
	for _, v := range values {
		payload = append(payload, encodeString(v)...)
	}
	data := buildContainer(t, `"string"`, "", []int{len(values)}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	r.maxBlockBuf = 4 // force every block's buffer past the ceiling

	for range values {
		_, err := r.Next()
		require.NoError(t, err)
	}
	assert.Nil(t, r.blockBuf)
}

func TestContainerMapLastKeyWins(t *testing.T) {
	schema := `{"type": "map", "values": "int"}`
	var payload []byte
	payload = append(payload, encodeLong(2)...)
	payload = append(payload, encodeString("a")...)
	payload = append(payload, encodeLong(1)...)
	payload = append(payload, encodeString("a")...)
	payload = append(payload, encodeLong(2)...)
	payload = append(payload, encodeLong(0)...) // terminate block
	data := buildContainer(t, schema, "", []int{1}, [][]byte{payload})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Next()
	require.NoError(t, err)
	m := v.(*avro.MapValue)
	require.Len(t, m.Keys, 1)
	assert.Equal(t, avro.IntValue(2), m.Values[0])
}
