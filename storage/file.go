package storage

import (
	"context"
	"os"

	"github.com/cloudmere/avro"
)

// FileSystem reads local files. Adapted from the teacher's
// pkg/storage.FileSystem, minus the write paths and minus the
// teacher's pkg/fs indirection (that package's platform-specific
// Open/OpenFile implementations weren't available to adapt, so this
// calls os.Open directly, which is all fs.Open does on the common
// path anyway).
type FileSystem struct{}

var _ Engine = (*FileSystem)(nil)

func NewFileSystem() *FileSystem { return &FileSystem{} }

func (f *FileSystem) Get(_ context.Context, u *URI) (Reader, error) {
	file, err := os.Open(u.Filepath())
	if err != nil {
		return nil, wrapFileError(u, err)
	}
	return &fileReader{file, u}, nil
}

func (f *FileSystem) Size(_ context.Context, u *URI) (int64, error) {
	info, err := os.Stat(u.Filepath())
	if err != nil {
		return 0, wrapFileError(u, err)
	}
	return info.Size(), nil
}

func (f *FileSystem) Exists(_ context.Context, u *URI) (bool, error) {
	_, err := os.Stat(u.Filepath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, wrapFileError(u, err)
	}
	return true, nil
}

func wrapFileError(uri *URI, err error) error {
	if os.IsNotExist(err) {
		return avro.E(avro.Other, avro.Path(uri.String()), "file not found")
	}
	return err
}

type fileReader struct {
	*os.File
	uri *URI
}

var _ Sizer = (*fileReader)(nil)

func (f *fileReader) Size() (int64, error) {
	info, err := os.Stat(f.uri.Filepath())
	if err != nil {
		return 0, wrapFileError(f.uri, err)
	}
	return info.Size(), nil
}
