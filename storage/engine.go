// Package storage opens a read-only byte source by URI, dispatching
// on scheme to a file, http(s), or s3 backend behind one Engine
// interface. Adapted from the teacher's pkg/storage: trimmed to the
// read-only half of its Engine (Get, Size, Exists) since a container
// reader never writes, and its s3 backend is rewritten against a
// sequential GetObject stream (see s3.go) instead of a seekable
// ranged downloader, since avro.Container only ever reads forward.
package storage

import (
	"context"
	"errors"
	"io"
)

// Reader is what an Engine hands back for a successful Get: a plain
// forward-readable, closeable stream. Unlike the teacher's
// storage.Reader, this does not require io.ReaderAt — nothing in this
// module seeks.
type Reader interface {
	io.ReadCloser
}

// Sizer is implemented by a Reader that knows its total size without
// an extra round trip.
type Sizer interface {
	Size() (int64, error)
}

var ErrNotSupported = errors.New("storage: method not supported by this engine")

// Engine opens byte sources by URI.
type Engine interface {
	Get(context.Context, *URI) (Reader, error)
	Size(context.Context, *URI) (int64, error)
	Exists(context.Context, *URI) (bool, error)
}

// NewEngine returns a Router with every known scheme enabled: file,
// http, https, s3.
func NewEngine() *Router {
	r := NewRouter()
	r.Enable(FileScheme)
	r.Enable(HTTPScheme)
	r.Enable(HTTPSScheme)
	r.Enable(S3Scheme)
	return r
}

// Get opens and fully buffers the byte source at u. Avro container
// readers normally hold a streaming Reader instead (the container
// format is block-framed precisely so a whole file needn't be
// buffered); Get exists for small side-reads, e.g. fetching a
// schema file referenced by URI rather than embedded in a header.
func Get(ctx context.Context, engine Engine, u *URI) ([]byte, error) {
	r, err := engine.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if closeErr := r.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func Size(r Reader) (int64, error) {
	if sizer, ok := r.(Sizer); ok {
		return sizer.Size()
	}
	return 0, ErrNotSupported
}
