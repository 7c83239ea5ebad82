package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudmere/avro"
)

// HTTPEngine streams a container file over a plain GET. Adapted from
// the teacher's pkg/storage.HTTPEngine; the write methods and the
// ReaderAt shim for a non-seekable body are dropped since this
// package's Reader never requires ReaderAt.
type HTTPEngine struct{}

var _ Engine = (*HTTPEngine)(nil)

func NewHTTP() *HTTPEngine { return &HTTPEngine{} }

func (*HTTPEngine) Get(ctx context.Context, u *URI) (Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, avro.E(avro.Other, avro.Path(u.String()), "not found")
		}
		return nil, errors.New(resp.Status)
	}
	return resp.Body, nil
}

func (*HTTPEngine) Size(ctx context.Context, u *URI) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, ErrNotSupported
	}
	return resp.ContentLength, nil
}

func (*HTTPEngine) Exists(ctx context.Context, u *URI) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return false, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
