package asar

import (
	"fmt"
	"io"
	"os"
)

// ByteSource provides random access to archive bytes.
//
// *os.File has ReadAt but not Size; OpenFile wraps it. Size is used to
// reject headers that claim more bytes than the source holds.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// fileSource wraps *os.File to implement ByteSource.
// The size is cached at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrContentType, f.Name())
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// Close closes the underlying file.
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

// OpenFile opens an archive file and decodes its header.
//
// The header is read into memory; file contents are read on demand. The
// returned Archive must be closed to release the file handle.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, err
	}

	src, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	a, err := New(src, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.name = path
	a.closer = src
	return a, nil
}

// Interface compliance for fileSource.
var _ ByteSource = (*fileSource)(nil)
