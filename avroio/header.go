package avroio

import (
	"bytes"
	"context"

	"github.com/cloudmere/avro"
)

var magic = [4]byte{'O', 'b', 'j', 1}

const syncMarkerSize = 16

// header holds the parsed container file preamble: the writer's
// schema, every header metadata entry (not just avro.schema/avro.codec,
// so a caller can inspect host-defined keys), the negotiated codec,
// and the 16-byte sync marker every block must end with.
type header struct {
	Schema   avro.Schema
	Metadata map[string][]byte
	Codec    Codec
	Sync     [syncMarkerSize]byte
}

// readHeader consumes the magic bytes, metadata map, and sync marker
// from src. Grounded on original_source/src/lib.rs's
// AvroDatafile::open: same four-byte magic check, same
// avro.schema/avro.codec metadata keys, same 16-byte trailing sync
// marker read. When cache is non-nil, the writer's schema is resolved
// through it instead of always calling avro.ParseSchema, so readers
// opened back-to-back against files sharing one writer's schema reuse
// the same parsed Schema tree.
func readHeader(ctx context.Context, src *Source, cache SchemaCache) (*header, error) {
	dec := NewDecoder(src)
	magicBytes, err := src.Read(4)
	if err != nil {
		return nil, avro.E(avro.NotAnAvroFile, avro.Offset(0), err)
	}
	if !bytes.Equal(magicBytes, magic[:]) {
		return nil, avro.E(avro.NotAnAvroFile, avro.Offset(0), "missing Obj1 magic bytes")
	}
	meta, err := dec.Metadata()
	if err != nil {
		return nil, err
	}
	schemaJSON, ok := meta["avro.schema"]
	if !ok {
		return nil, avro.E(avro.SchemaErrorKind, avro.MissingAttribute, avro.Path("avro.schema"), "container header has no avro.schema entry")
	}
	var schema avro.Schema
	if cache != nil {
		schema, err = cache.ParseSchema(ctx, schemaJSON)
	} else {
		schema, err = avro.ParseSchema(schemaJSON)
	}
	if err != nil {
		return nil, err
	}
	codecName := "null"
	if c, ok := meta["avro.codec"]; ok {
		codecName = string(c)
	}
	codec, err := parseCodec(codecName)
	if err != nil {
		return nil, err
	}
	syncBytes, err := src.Read(syncMarkerSize)
	if err != nil {
		return nil, avro.E(avro.UnexpectedEOF, avro.Offset(src.Offset()), err)
	}
	h := &header{Schema: schema, Metadata: meta, Codec: codec}
	copy(h.Sync[:], syncBytes)
	return h, nil
}
