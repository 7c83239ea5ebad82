package storage

import "context"

// Scheme identifies a URI scheme a Router can dispatch.
type Scheme string

const (
	FileScheme  Scheme = "file"
	HTTPScheme  Scheme = "http"
	HTTPSScheme Scheme = "https"
	S3Scheme    Scheme = "s3"
)

func knownScheme(s Scheme) bool {
	switch s {
	case FileScheme, HTTPScheme, HTTPSScheme, S3Scheme:
		return true
	}
	return false
}

// Router dispatches Engine calls to a per-scheme backend, enabled
// individually so a host can, e.g., permit file:// but not s3://.
type Router struct {
	engines map[Scheme]Engine
}

var _ Engine = (*Router)(nil)

// NewRouter returns a Router with no schemes enabled.
func NewRouter() *Router {
	return &Router{engines: make(map[Scheme]Engine)}
}

// Enable registers the default backend for scheme.
func (r *Router) Enable(scheme Scheme) *Router {
	switch scheme {
	case FileScheme:
		r.engines[scheme] = NewFileSystem()
	case HTTPScheme, HTTPSScheme:
		r.engines[scheme] = NewHTTP()
	case S3Scheme:
		r.engines[scheme] = NewS3()
	}
	return r
}

func (r *Router) lookup(u *URI) (Engine, error) {
	e, ok := r.engines[Scheme(u.Scheme)]
	if !ok {
		return nil, ErrNotSupported
	}
	return e, nil
}

func (r *Router) Get(ctx context.Context, u *URI) (Reader, error) {
	e, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, u)
}

func (r *Router) Size(ctx context.Context, u *URI) (int64, error) {
	e, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	return e.Size(ctx, u)
}

func (r *Router) Exists(ctx context.Context, u *URI) (bool, error) {
	e, err := r.lookup(u)
	if err != nil {
		return false, err
	}
	return e.Exists(ctx, u)
}
