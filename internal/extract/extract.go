// Package extract materializes a decoded content tree from the archive
// bytes behind it.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/platform"
	"github.com/meigma/asar/internal/sizing"
)

type config struct {
	verify   bool
	logger   *slog.Logger
	progress asartype.ProgressFunc
}

// Option configures Extract and ReadFile.
type Option func(*config)

// WithVerify controls whether recorded integrity hashes are checked.
// It defaults to true. Files without integrity metadata are never checked.
func WithVerify(verify bool) Option {
	return func(c *config) {
		c.verify = verify
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress sets a callback to receive a StageExtracting event per file.
func WithProgress(fn asartype.ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

func newConfig(opts []Option) config {
	cfg := config{verify: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Extract recreates every folder and file of tree beneath dest, creating
// dest if needed. File contents are read from src at start + offset.
// Existing files are overwritten and take the mode of the entry.
// Extraction is not transactional: a failure leaves everything written
// before it in place.
func Extract(ctx context.Context, src io.ReaderAt, start uint64, tree *content.Root, dest string, opts ...Option) error {
	cfg := newConfig(opts)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return err
	}
	defer root.Close()

	filesTotal, bytesTotal := content.Files(tree)
	cfg.log().Info("extracting archive", "dest", dest, "file_count", filesTotal, "data_size", bytesTotal)

	var filesDone int
	var bytesDone uint64
	for p, e := range content.All(tree) {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch e := e.(type) {
		case *content.Folder:
			if err := root.MkdirAll(filepath.FromSlash(p), 0o755); err != nil {
				return err
			}
		case *content.File:
			if err := writeFile(root, p, src, start, e, cfg.verify); err != nil {
				return err
			}
			filesDone++
			bytesDone += e.Size()
			cfg.progress.Report(asartype.ProgressEvent{
				Stage:      asartype.StageExtracting,
				Path:       p,
				BytesDone:  bytesDone,
				BytesTotal: bytesTotal,
				FilesDone:  filesDone,
				FilesTotal: filesTotal,
			})
		}
	}
	return nil
}

func writeFile(root *os.Root, p string, src io.ReaderAt, start uint64, f *content.File, verify bool) error {
	off, n, err := sizing.Range(start, f.Offset(), f.Size(), asartype.ErrSizeOverflow)
	if err != nil {
		return &fs.PathError{Op: "extract", Path: p, Err: err}
	}

	rel := filepath.FromSlash(p)
	mode := platform.FileMode(f.Executable())
	out, err := root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	var r io.Reader = io.NewSectionReader(src, off, n)
	var v digest.Verifier
	if in := f.Integrity(); verify && in != nil {
		v = in.Verifier()
		r = io.TeeReader(r, v)
	}

	copied, err := io.Copy(out, r)
	if err != nil {
		return &fs.PathError{Op: "extract", Path: p, Err: err}
	}
	if copied != n {
		return &fs.PathError{Op: "extract", Path: p, Err: io.ErrUnexpectedEOF}
	}
	if v != nil && !v.Verified() {
		return &fs.PathError{Op: "extract", Path: p, Err: asartype.ErrHashMismatch}
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies mode on create.
	return root.Chmod(rel, mode)
}

// ReadFile returns the contents of the file at p. It reports false when p
// does not name a file, when the bytes cannot be read in full, or when
// they fail integrity verification; the reason is logged at debug level.
func ReadFile(src io.ReaderAt, start uint64, tree *content.Root, p string, opts ...Option) ([]byte, bool) {
	cfg := newConfig(opts)

	data, err := readFile(src, start, tree, p, cfg.verify)
	if err != nil {
		cfg.log().Debug("readfile returned no data", "path", p, "reason", err)
		return nil, false
	}
	return data, true
}

var (
	errNotFound = errors.New("not found")
	errNotFile  = errors.New("not a file")
)

func readFile(src io.ReaderAt, start uint64, tree *content.Root, p string, verify bool) ([]byte, error) {
	e, ok := content.Find(tree, p)
	if !ok {
		return nil, errNotFound
	}
	f, ok := e.(*content.File)
	if !ok {
		return nil, errNotFile
	}

	off, n, err := sizing.Range(start, f.Offset(), f.Size(), asartype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	buf, err := readSection(src, off, n)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if in := f.Integrity(); verify && in != nil {
		v := in.Verifier()
		_, _ = v.Write(buf)
		if !v.Verified() {
			return nil, asartype.ErrHashMismatch
		}
	}
	return buf, nil
}

type sizer interface {
	Size() int64
}

// readSection reads exactly n bytes at off. Sources that report their size
// are checked before allocating; others are read incrementally so a bogus
// size in the header cannot force a large allocation.
func readSection(src io.ReaderAt, off, n int64) ([]byte, error) {
	sr := io.NewSectionReader(src, off, n)
	s, ok := src.(sizer)
	if !ok {
		buf, err := io.ReadAll(sr)
		if err != nil {
			return nil, err
		}
		if int64(len(buf)) != n {
			return nil, io.ErrUnexpectedEOF
		}
		return buf, nil
	}

	if size := s.Size(); size < off || size-off < n {
		return nil, io.ErrUnexpectedEOF
	}
	length, err := sizing.ToInt(uint64(n), asartype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(sr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
