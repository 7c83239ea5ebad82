package avro

import "io"

// OpenSource is the minimal byte-source contract avroio.NewReader
// needs: a forward-only reader, optionally closeable.
// storage.Engine-backed readers and plain *os.File both satisfy it.
type OpenSource = io.Reader

// Container is the public handle to an opened container file:
// validated magic, parsed header, positioned at the first block.
// avroio.NewReader returns the concrete implementation, *avroio.Reader;
// this interface exists so
// the root package's API doesn't force every caller to import
// avroio directly.
type Container interface {
	// Schema returns the writer's schema.
	Schema() Schema
	// Next decodes and returns the next record, or io.EOF once the
	// container is exhausted.
	Next() (Value, error)
	// Close releases the underlying byte source.
	Close() error
}
