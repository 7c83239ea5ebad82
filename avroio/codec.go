package avroio

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/cloudmere/avro"
)

// Codec names the two compression codecs this reader understands, per
// spec.md's §9 open-question decision to not heuristically support
// anything else.
type Codec string

const (
	CodecNull    Codec = "null"
	CodecDeflate Codec = "deflate"
)

// parseCodec maps a header's avro.codec metadata value to a Codec,
// defaulting to CodecNull when the key is absent (matching
// original_source/src/lib.rs's None => Codec::Null).
func parseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case CodecNull, "":
		return CodecNull, nil
	case CodecDeflate:
		return CodecDeflate, nil
	default:
		return "", avro.E(avro.UnsupportedCodec, "unsupported codec %q", name)
	}
}

// decompressBlock expands a block's raw payload according to codec,
// reusing buf's backing array when it has enough capacity. Grounded
// on the teacher's zio/zngio/frame.go decompress-into-reusable-buffer
// strategy; klauspost/compress/flate is a drop-in faster
// compress/flate, matching the teacher's own preference for a
// third-party codec implementation over the stdlib one.
func decompressBlock(codec Codec, payload []byte, buf []byte) ([]byte, error) {
	switch codec {
	case CodecNull:
		return payload, nil
	case CodecDeflate:
		fr := flate.NewReader(bytes.NewReader(payload))
		defer fr.Close()
		out := buf[:0]
		chunk := make([]byte, 32*1024)
		for {
			n, err := fr.Read(chunk)
			if n > 0 {
				out = append(out, chunk[:n]...)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, avro.E(avro.DecompressionFailed, err)
			}
		}
		return out, nil
	default:
		return nil, avro.E(avro.UnsupportedCodec, "unsupported codec %q", codec)
	}
}
