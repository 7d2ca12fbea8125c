package asar

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/extract"
	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/packing"
)

// Archive is an opened archive: a content tree plus the bytes behind it.
//
// An Archive opened from an archive file (OpenFile, New) can be listed,
// extracted and read from. An Archive opened from a directory (OpenDir) can
// be listed and packed. The tree is immutable once opened.
//
// Archive is not safe for concurrent use; callers must serialize calls on
// one Archive. Separate Archives are independent.
type Archive struct {
	name   string
	tree   *content.Root
	start  uint64
	src    ByteSource
	closer io.Closer
	dir    *os.Root
	isDir  bool
	list   packing.List
	logger *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New decodes the archive held by src. The header is parsed and validated
// in full before New returns.
func New(src ByteSource, opts ...Option) (*Archive, error) {
	cfg := newOpenConfig(opts)

	h, err := header.Read(src, header.WithStrictMarker(cfg.strictMarker))
	if err != nil {
		return nil, err
	}
	tree, err := content.Parse(h.JSON)
	if err != nil {
		return nil, err
	}

	a := &Archive{tree: tree, start: h.Start, src: src, logger: cfg.logger}
	files, size := content.Files(tree)
	a.log().Debug("archive decoded", "header_size", len(h.JSON), "start", h.Start, "file_count", files, "data_size", size)
	return a, nil
}

// OpenDir walks the directory at path into a content tree and the ordered
// list of files Pack will copy. File sizes are recorded now; Pack fails
// with ErrFileChanged if a file's size differs when it is copied.
//
// The returned Archive keeps the directory open and must be closed.
func OpenDir(ctx context.Context, path string, opts ...Option) (*Archive, error) {
	cfg := newOpenConfig(opts)

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, err
	}

	tree, list, err := packing.Build(ctx, root,
		packing.WithOrder(cfg.order),
		packing.WithIntegrity(cfg.integrity, cfg.blockSize),
		packing.WithLogger(cfg.logger),
		packing.WithProgress(cfg.progress),
	)
	if err != nil {
		root.Close()
		return nil, err
	}

	text, err := content.Encode(tree)
	if err != nil {
		root.Close()
		return nil, err
	}
	return &Archive{
		name:   path,
		tree:   tree,
		start:  header.Start(len(text), header.PaddingNone),
		dir:    root,
		isDir:  true,
		list:   list,
		logger: cfg.logger,
	}, nil
}

// Open opens path as a directory if it is one, and as an archive file
// otherwise.
func Open(ctx context.Context, path string, opts ...Option) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDir(ctx, path, opts...)
	}
	return OpenFile(path, opts...)
}

// Close releases the archive file or directory handle.
func (a *Archive) Close() error {
	var err error
	if a.closer != nil {
		err = a.closer.Close()
		a.closer = nil
	}
	if a.dir != nil {
		if dirErr := a.dir.Close(); err == nil {
			err = dirErr
		}
		a.dir = nil
	}
	return err
}

// Name returns the path the archive was opened from, or "" for New.
func (a *Archive) Name() string { return a.name }

// IsDir reports whether the archive was opened from a directory.
func (a *Archive) IsDir() bool { return a.isDir }

// Start returns the absolute address of the data region. For an archive
// opened from a directory it is the address Pack produces without padding.
func (a *Archive) Start() uint64 { return a.start }

// Root returns the content tree.
func (a *Archive) Root() *Root { return a.tree }

// Find returns the entry at path. The empty path names the root.
func (a *Archive) Find(path string) (Entry, bool) {
	return content.Find(a.tree, NormalizePath(path))
}

// Entries returns an iterator over every folder and file with its path,
// in pre-order. Decoded archives yield header order.
func (a *Archive) Entries() iter.Seq2[string, Entry] {
	return content.All(a.tree)
}

// Paths returns an iterator over every folder and file path in pre-order.
func (a *Archive) Paths() iter.Seq[string] {
	return content.Paths(a.tree)
}

// List returns every folder and file path in pre-order.
func (a *Archive) List() []string {
	return slices.Collect(a.Paths())
}

// PathsContaining returns every path whose final element contains pattern.
func (a *Archive) PathsContaining(pattern string) []string {
	var out []string
	for p, e := range content.All(a.tree) {
		if strings.Contains(e.Name(), pattern) {
			out = append(out, p)
		}
	}
	return out
}

// Extract recreates the archive's folders and files beneath dest. It
// returns ErrContentType for an archive opened from a directory.
func (a *Archive) Extract(ctx context.Context, dest string, opts ...ExtractOption) error {
	if a.isDir {
		return fmt.Errorf("extract %s: %w", a.name, ErrContentType)
	}
	cfg := a.extractConfig(opts)
	a.log().Info("extracting archive", "archive", a.name, "dest", dest)
	return extract.Extract(ctx, a.src, a.start, a.tree, dest,
		extract.WithVerify(cfg.verify),
		extract.WithProgress(cfg.progress),
		extract.WithLogger(cfg.logger),
	)
}

// ReadFile returns the contents of the file at path. It reports false when
// path does not name a file, when the contents cannot be read or fail
// verification, and for an archive opened from a directory.
func (a *Archive) ReadFile(path string, opts ...ExtractOption) ([]byte, bool) {
	if a.isDir {
		return nil, false
	}
	cfg := a.extractConfig(opts)
	return extract.ReadFile(a.src, a.start, a.tree, NormalizePath(path),
		extract.WithVerify(cfg.verify),
		extract.WithLogger(cfg.logger),
	)
}

func (a *Archive) extractConfig(opts []ExtractOption) extractConfig {
	cfg := extractConfig{verify: true, logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Pack writes the directory as an archive file at dest, truncating any
// existing file. It returns ErrContentType for an archive opened from an
// archive file.
//
// Pack is not atomic: on failure the partially written file is left at dest.
func (a *Archive) Pack(ctx context.Context, dest string, opts ...PackOption) error {
	if !a.isDir {
		return fmt.Errorf("pack %s: %w", a.name, ErrContentType)
	}
	if a.dir == nil {
		return fmt.Errorf("pack %s: %w", a.name, os.ErrClosed)
	}
	cfg := packConfig{logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := a.log()
	if cfg.logger != nil {
		log = cfg.logger
	}

	f, err := os.Create(dest) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return err
	}
	defer f.Close()

	log.Info("packing archive", "dir", a.name, "dest", dest, "file_count", len(a.list))
	start, err := packing.Write(ctx, f, a.dir, a.tree, a.list,
		packing.WithPadding(cfg.padding),
		packing.WithProgress(cfg.progress),
		packing.WithLogger(cfg.logger),
	)
	if err != nil {
		return fmt.Errorf("pack %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Debug("archive packed", "dest", dest, "start", start, "data_size", a.list.Total())
	return nil
}
