package avroio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pbnjay/memory"
	"go.uber.org/zap"

	"github.com/cloudmere/avro"
)

func bytesReaderOf(b []byte) io.Reader { return bytes.NewReader(b) }

// state is the container reader's lifecycle, per spec: Created ->
// HeaderRead -> InBlock <-> BlockDone -> Exhausted, with Failed
// reachable from any state.
type state int

const (
	stateCreated state = iota
	stateHeaderRead
	stateInBlock
	stateBlockDone
	stateExhausted
	stateFailed
)

const (
	defaultBufferSize = 32 * 1024
	defaultMaxBuffer  = 64 * 1024 * 1024

	// retainedBufFraction bounds how much of host memory a single
	// reader's reused decompression buffer may keep pinned: 1/64th of
	// total memory, floored at defaultMaxBuffer and capped at 256MiB
	// so a host with a huge amount of RAM still doesn't let one reader
	// hoard gigabytes just because it once saw one huge block.
	retainedBufFraction = 64
	maxRetainedBufCap   = 256 * 1024 * 1024
)

// maxRetainedBuf returns the largest decompression buffer a Reader
// may keep pinned for reuse across blocks. A block larger than this
// still decodes — decompressBlock has no size limit of its own — but
// its buffer is released back to the GC afterward instead of being
// retained, so a reader that processes one adversarial huge block
// among many ordinary ones degrades back to ordinary memory use
// rather than staying inflated for the rest of the file (spec.md §5).
func maxRetainedBuf() int {
	total := memory.TotalMemory()
	if total == 0 {
		// memory.TotalMemory returns 0 when it can't determine host
		// memory (e.g. inside some sandboxes); fall back to a fixed
		// ceiling rather than retaining unboundedly.
		return defaultMaxBuffer
	}
	limit := int64(total) / retainedBufFraction
	if limit < defaultMaxBuffer {
		limit = defaultMaxBuffer
	}
	if limit > maxRetainedBufCap {
		limit = maxRetainedBufCap
	}
	return int(limit)
}

// Metrics receives counters from a Reader as it progresses. A nil
// Metrics is fine; every call site nil-checks before invoking it.
// Kept as a narrow interface here (rather than importing a concrete
// Prometheus type) so avroio has no dependency on the metrics
// package; metrics.Recorder implements this.
type Metrics interface {
	BlockRead(records int, compressedBytes, decompressedBytes int64)
	RecordDecoded()
	DecodeError()
}

// SchemaCache resolves a container header's raw avro.schema JSON into
// a parsed Schema, reusing a previously parsed tree for byte-identical
// JSON instead of re-parsing. cache.Cache implements this; kept as a
// narrow interface here for the same reason as Metrics, so avroio has
// no dependency on the cache package.
type SchemaCache interface {
	ParseSchema(ctx context.Context, data []byte) (avro.Schema, error)
}

// Option configures a Reader at construction time.
type Option func(*Reader)

// WithBufferSize sets the Source's initial and maximum buffer sizes.
func WithBufferSize(initial, max int) Option {
	return func(r *Reader) { r.bufInitial, r.bufMax = initial, max }
}

// WithLogger attaches a zap logger; block boundaries, codec
// selection, and terminal errors are logged at debug/warn level.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

// WithSchemaCache resolves the header's writer schema through c
// instead of parsing it unconditionally. Many readers opened against
// files sharing one writer's schema then reuse the same parsed Schema
// tree rather than re-running ParseSchema per file.
func WithSchemaCache(c SchemaCache) Option {
	return func(r *Reader) { r.schemaCache = c }
}

// Reader is a single-threaded, forward-only Avro container file
// reader. It never seeks backward and performs no internal
// concurrency (spec §5): Next must not be called concurrently with
// itself or with Close.
//
// State-machine and block-handling strategy grounded on
// original_source/src/lib.rs's AvroDatafile Iterator impl
// (StartOfDataBlock/InDataBlock) combined with the teacher's
// zio/bzngio/reader.go single-threaded read loop shape and
// zio/zngio/frame.go's whole-block-decompress-then-scan strategy.
type Reader struct {
	src    *Source
	closer io.Closer

	bufInitial, bufMax int
	log                *zap.Logger
	metrics            Metrics
	schemaCache        SchemaCache

	header *header
	state  state
	err    error // sticky once state == stateFailed

	blockRemaining int64
	blockDec       *ValueDecoder
	blockBuf       []byte // reused decompression scratch buffer
	maxBlockBuf    int    // ceiling on blockBuf's retained capacity
}

// NewReader opens an Avro container stream. r is read forward-only
// and is never retained past Close. If r implements io.Closer, Close
// on the Reader closes it too.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	rd := &Reader{
		bufInitial:  defaultBufferSize,
		bufMax:      defaultMaxBuffer,
		log:         zap.NewNop(),
		maxBlockBuf: maxRetainedBuf(),
	}
	for _, opt := range opts {
		opt(rd)
	}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	rd.src = NewSource(r, rd.bufInitial, rd.bufMax)

	// NewReader has no caller-supplied context (spec.md keeps every
	// Reader method synchronous and context-free); a schema cache
	// lookup is either an in-process map read or, at worst, one Redis
	// round trip, so context.Background() is fine here.
	h, err := readHeader(context.Background(), rd.src, rd.schemaCache)
	if err != nil {
		rd.fail(err)
		return nil, err
	}
	rd.header = h
	rd.state = stateHeaderRead
	rd.log.Debug("avro container header read",
		zap.String("codec", string(h.Codec)),
		zap.Int("metadata_entries", len(h.Metadata)))
	return rd, nil
}

// Schema returns the writer's schema parsed from the container
// header. It never changes for the lifetime of the Reader.
func (r *Reader) Schema() avro.Schema { return r.header.Schema }

// Metadata returns every key/value entry from the container header,
// including but not limited to avro.schema and avro.codec.
func (r *Reader) Metadata() map[string][]byte { return r.header.Metadata }

func (r *Reader) fail(err error) error {
	r.state = stateFailed
	r.err = err
	r.log.Warn("avro container reader failed", zap.Error(err))
	if r.metrics != nil {
		r.metrics.DecodeError()
	}
	return err
}

// Next decodes and returns the next record's Value. It returns
// io.EOF, and transitions to Exhausted, once every block has been
// consumed and the stream ends at a block boundary. A block's trailing
// sync marker is checked on the call after the one that returned that
// block's last record. Once Next returns any
// other error the Reader is Failed and every subsequent call returns
// that same error.
func (r *Reader) Next() (avro.Value, error) {
	if r.state == stateFailed {
		return nil, r.err
	}
	if r.state == stateExhausted {
		return nil, io.EOF
	}
	for {
		switch r.state {
		case stateHeaderRead, stateBlockDone:
			if r.state == stateBlockDone {
				// The previous block's last record has already been
				// returned; its trailing sync marker is checked now.
				if err := r.closeBlock(); err != nil {
					return nil, r.fail(err)
				}
			}
			if err := r.openBlock(); err != nil {
				// Only a bare io.EOF marks a clean block boundary; an
				// avro.Error that merely wraps io.EOF is a truncation.
				if err == io.EOF {
					r.state = stateExhausted
					return nil, io.EOF
				}
				return nil, r.fail(err)
			}
		case stateInBlock:
			v, err := r.blockDec.Decode(r.header.Schema)
			if err != nil {
				return nil, r.fail(err)
			}
			r.blockRemaining--
			if r.metrics != nil {
				r.metrics.RecordDecoded()
			}
			if r.blockRemaining == 0 {
				r.state = stateBlockDone
			}
			return v, nil
		default:
			return nil, r.fail(avro.E(avro.Other, fmt.Sprintf("avroio: reader in unexpected state %d", r.state)))
		}
	}
}

// openBlock reads one block's count-prefix and byte-length, reads and
// decompresses its payload, and arms blockDec over the result. It
// returns io.EOF only when the stream ends cleanly at a block
// boundary — AtEOF is true before a single byte of the next count is
// consumed. AtEOF false guarantees at least one byte is available, so
// any error out of the count read from that point on means the file
// was truncated partway through a block header, which must surface as
// a hard UnexpectedEOF failure rather than a silently short record
// stream (spec.md §8.1).
func (r *Reader) openBlock() error {
	for {
		if r.src.AtEOF() {
			return io.EOF
		}
		dec := NewDecoder(r.src)
		count, err := dec.Long()
		if err != nil {
			return err
		}
		if count < 0 {
			return avro.E(avro.MalformedData, avro.Offset(r.src.Offset()), "negative block record count %d", count)
		}
		byteLen, err := dec.Long()
		if err != nil {
			return err
		}
		if byteLen < 0 {
			return avro.E(avro.MalformedData, avro.Offset(r.src.Offset()), "negative block byte length %d", byteLen)
		}
		payload, err := r.src.Read(int(byteLen))
		if err != nil {
			return avro.E(avro.UnexpectedEOF, avro.Offset(r.src.Offset()), err)
		}
		decompressed, err := decompressBlock(r.header.Codec, payload, r.blockBuf[:0])
		if err != nil {
			return err
		}
		if cap(decompressed) <= r.maxBlockBuf {
			r.blockBuf = decompressed
		} else {
			// This block's buffer grew past the retention ceiling;
			// let the GC reclaim it instead of carrying it into the
			// next block's decompression.
			r.blockBuf = nil
		}
		r.log.Debug("avro block opened",
			zap.Int64("records", count),
			zap.Int64("compressed_bytes", byteLen),
			zap.Int("decompressed_bytes", len(decompressed)))
		if r.metrics != nil {
			r.metrics.BlockRead(int(count), byteLen, int64(len(decompressed)))
		}
		if count == 0 {
			// An empty block is legal; verify its sync marker and
			// keep looking for the next non-empty one (or EOF).
			if err := r.closeBlock(); err != nil {
				return err
			}
			continue
		}
		r.blockRemaining = count
		r.blockDec = NewValueDecoder(NewDecoder(NewSource(bytesReaderOf(decompressed), len(decompressed)+1, r.bufMax)))
		r.state = stateInBlock
		return nil
	}
}

// closeBlock validates the sync marker following the block just
// consumed.
func (r *Reader) closeBlock() error {
	sync, err := r.src.Read(syncMarkerSize)
	if err != nil {
		return avro.E(avro.UnexpectedEOF, avro.Offset(r.src.Offset()), err)
	}
	for i := 0; i < syncMarkerSize; i++ {
		if sync[i] != r.header.Sync[i] {
			return avro.E(avro.CorruptSyncMarker, avro.Offset(r.src.Offset()))
		}
	}
	return nil
}

// Close releases the underlying reader, if it was closeable. Close is
// idempotent and safe to call regardless of reader state, including
// Failed, so callers can always defer it.
func (r *Reader) Close() error {
	if r.closer != nil {
		c := r.closer
		r.closer = nil
		return c.Close()
	}
	return nil
}
