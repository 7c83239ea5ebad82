package storage

import (
	"net/url"
	"path/filepath"
)

// URI identifies a byte source: a local path or a file/http(s)/s3
// URL. Adapted from the teacher's pkg/storage.URI; the ZNG
// marshal/unmarshal methods the teacher attaches (this module has no
// ZNG value system) are dropped, keeping the parsing and scheme logic
// unchanged.
type URI url.URL

// ParseURI parses path with url.Parse. A path with no scheme, or one
// with an unrecognized scheme (most likely a bare filesystem path,
// possibly containing a colon), is resolved as an absolute file path.
func ParseURI(path string) (*URI, error) {
	if path == "" {
		return &URI{}, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if !knownScheme(Scheme(u.Scheme)) {
		return parseBarePath(path)
	}
	return (*URI)(u), nil
}

func MustParseURI(path string) *URI {
	u, err := ParseURI(path)
	if err != nil {
		panic(err)
	}
	return u
}

func (u URI) String() string {
	return (*url.URL)(&u).String()
}

func (u *URI) HasScheme(s Scheme) bool {
	return Scheme(u.Scheme) == s
}

func (u *URI) IsZero() bool {
	return *u == URI{}
}

// AppendPathString returns a copy of u with elem appended to its path,
// separated by "/".
func (u *URI) AppendPathString(elem string) *URI {
	cp := *u
	cp.Path = cp.Path + "/" + elem
	return &cp
}

func parseBarePath(path string) (*URI, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if len(filepath.VolumeName(abs)) == 2 {
		abs = "/" + abs
	}
	abs = filepath.ToSlash(abs)
	u, err := url.Parse("file://" + abs)
	if err != nil {
		return nil, err
	}
	return (*URI)(u), nil
}

// Filepath returns the local filesystem path a file:// URI refers to.
func (u *URI) Filepath() string {
	path := u.Path
	if len(path) > 0 && path[0] == '/' && len(filepath.VolumeName(path[1:])) == 2 {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}
