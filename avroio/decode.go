package avroio

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/cloudmere/avro"
)

// Decoder reads Avro's primitive binary encodings off a Source. The
// zig-zag varint table and the block-count-with-negative-size framing
// are grounded directly on original_source/src/encoding.rs's
// read_varint_long/decode_zigzag_long/read_block_count.
type Decoder struct {
	src *Source
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src *Source) *Decoder { return &Decoder{src: src} }

func (d *Decoder) fail(err error) error {
	if err == ErrTruncated || err == io.EOF {
		return avro.E(avro.UnexpectedEOF, avro.Offset(d.src.Offset()), err)
	}
	return avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), err)
}

// Bool decodes a single encoded byte: 1 for true, 0 for false.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.src.Read(1)
	if err != nil {
		return false, d.fail(err)
	}
	return b[0] == 1, nil
}

// Long decodes a zig-zag varint-encoded 64-bit integer.
func (d *Decoder) Long() (int64, error) {
	var accum uint64
	var shift uint
	for {
		b, err := d.src.Read(1)
		if err != nil {
			return 0, d.fail(err)
		}
		accum |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), "varint too long")
		}
	}
	return int64(accum>>1) ^ -int64(accum&1), nil
}

// Int decodes a zig-zag varint-encoded 32-bit integer. Avro encodes
// int and long identically on the wire, but int's budget is narrower:
// per spec.md §4.1/§8.2, an int varint longer than 5 bytes, or one
// that decodes outside [-2^31, 2^31-1], fails with MalformedData
// instead of silently truncating.
func (d *Decoder) Int() (int32, error) {
	var accum uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= 5 {
			return 0, avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), "int varint exceeds 5-byte budget")
		}
		b, err := d.src.Read(1)
		if err != nil {
			return 0, d.fail(err)
		}
		accum |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
	}
	v := int64(accum>>1) ^ -int64(accum&1)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), "int value %d out of int32 range", v)
	}
	return int32(v), nil
}

// Float decodes a 4-byte little-endian IEEE-754 single.
func (d *Decoder) Float() (float32, error) {
	b, err := d.src.Read(4)
	if err != nil {
		return 0, d.fail(err)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// Double decodes an 8-byte little-endian IEEE-754 double.
func (d *Decoder) Double() (float64, error) {
	b, err := d.src.Read(8)
	if err != nil {
		return 0, d.fail(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// Bytes decodes a long byte-count followed by that many raw bytes.
func (d *Decoder) Bytes() ([]byte, error) {
	n, err := d.Long()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), "negative byte length %d", n)
	}
	b, err := d.src.Read(int(n))
	if err != nil {
		return nil, d.fail(err)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String decodes a long byte-count followed by that many UTF-8 bytes.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", avro.E(avro.MalformedData, avro.Offset(d.src.Offset()), "invalid utf-8 in string")
	}
	return string(b), nil
}

// Fixed reads exactly n raw bytes.
func (d *Decoder) Fixed(n int) ([]byte, error) {
	b, err := d.src.Read(n)
	if err != nil {
		return nil, d.fail(err)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// BlockCount decodes the leading count of an array/map block,
// transparently consuming and discarding the byte-size prefix that
// accompanies a negative count (used by writers that want a skip
// length without decoding every item). Returns the absolute item
// count for the block.
func (d *Decoder) BlockCount() (int64, error) {
	n, err := d.Long()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if _, err := d.Long(); err != nil { // block size in bytes, unused for forward decode
			return 0, err
		}
		return -n, nil
	}
	return n, nil
}

// Metadata decodes a map<bytes> block sequence terminated by a
// zero-count block, as used by the container file header.
func (d *Decoder) Metadata() (map[string][]byte, error) {
	meta := make(map[string][]byte)
	for {
		n, err := d.BlockCount()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return meta, nil
		}
		for i := int64(0); i < n; i++ {
			key, err := d.String()
			if err != nil {
				return nil, err
			}
			val, err := d.Bytes()
			if err != nil {
				return nil, err
			}
			meta[key] = val
		}
	}
}
