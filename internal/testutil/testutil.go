// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// BuildArchive assembles an unpadded archive from header text and the
// concatenated data region. It writes the prefix by hand so tests can check
// the codec against an independent rendition of the layout.
func BuildArchive(headerJSON string, data []byte) []byte {
	n := uint32(len(headerJSON)) //nolint:gosec // test fixtures are small
	buf := make([]byte, 16, 16+len(headerJSON)+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], 4)
	binary.LittleEndian.PutUint32(buf[4:8], n+8)
	binary.LittleEndian.PutUint32(buf[8:12], n+4)
	binary.LittleEndian.PutUint32(buf[12:16], n)
	buf = append(buf, headerJSON...)
	return append(buf, data...)
}

// SampleHeader describes folder1/{script.py,test_image.jpg} and test1.txt
// with sizes 55, 29968 and 21. The data region is 30044 bytes.
const SampleHeader = `{"files":{` +
	`"folder1":{"files":{` +
	`"script.py":{"size":55,"offset":"0"},` +
	`"test_image.jpg":{"size":29968,"offset":"55"}}},` +
	`"test1.txt":{"size":21,"offset":"30023"}}}`

// SampleData returns a data region matching SampleHeader where every file's
// bytes are a repeating pattern unique to that file.
func SampleData() (data []byte, files map[string][]byte) {
	files = map[string][]byte{
		"folder1/script.py":      pattern('s', 55),
		"folder1/test_image.jpg": pattern('j', 29968),
		"test1.txt":              pattern('t', 21),
	}
	data = append(data, files["folder1/script.py"]...)
	data = append(data, files["folder1/test_image.jpg"]...)
	data = append(data, files["test1.txt"]...)
	return data, files
}

func pattern(seed byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i%7)
	}
	return b
}

// WriteTree materializes files under dir. Keys are slash-separated paths;
// a key ending in "/" creates an empty directory.
func WriteTree(t testing.TB, dir string, files map[string][]byte) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// ReadTree returns every regular file under dir keyed by slash path, and
// every directory keyed by slash path with a trailing "/" and nil content.
func ReadTree(t testing.TB, dir string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			out[rel+"/"] = nil
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = content
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", dir, err)
	}
	return out
}
