// Package packing turns a directory into an archive: Build walks the
// directory into a content tree and a List, and Write concatenates the
// listed files behind the encoded header.
package packing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/platform"
	"github.com/meigma/asar/internal/sizing"
)

// Item is one file to copy into the archive.
type Item struct {
	// Path is the slash-separated path relative to the packed directory.
	Path string

	// Size is the number of bytes recorded for the file in the header.
	Size uint64
}

// List is the ordered sequence of files whose contents make up the data
// region. Item i occupies the bytes immediately after item i-1.
type List []Item

// Total returns the combined size of every item.
func (l List) Total() uint64 {
	var total uint64
	for _, it := range l {
		total += it.Size
	}
	return total
}

// folder is the part of *content.Root and *content.Folder used while
// building.
type folder interface {
	AddFolder(name string) (*content.Folder, error)
	AddFile(f *content.File) error
}

// builder holds state for a single directory walk.
type builder struct {
	cfg    config
	root   *os.Root
	list   List
	offset uint64
}

// Build walks the directory behind root depth-first in pre-order. Every
// directory becomes a folder and every regular file a file whose offset is
// the running total of the sizes before it, so offsets are contiguous and
// strictly follow List order.
//
// Symbolic links and other non-regular files are skipped. Empty
// directories are preserved.
func Build(ctx context.Context, root *os.Root, opts ...Option) (*content.Root, List, error) {
	b := &builder{cfg: newConfig(opts), root: root}
	if b.cfg.integrity && b.cfg.blockSize > 0 && uint64(b.cfg.blockSize) > content.MaxBlockSize {
		return nil, nil, fmt.Errorf("integrity block size %d exceeds %d", b.cfg.blockSize, uint64(content.MaxBlockSize))
	}
	b.cfg.log().Info("walking directory", "dir", root.Name(), "order", b.cfg.order.String())
	b.cfg.progress.Report(asartype.ProgressEvent{Stage: asartype.StageEnumerating})

	tree := content.NewRoot()
	if err := b.walk(ctx, "", tree); err != nil {
		return nil, nil, err
	}

	b.cfg.log().Debug("directory walked", "file_count", len(b.list), "data_size", b.offset)
	return tree, b.list, nil
}

func (b *builder) walk(ctx context.Context, dir string, into folder) error {
	entries, err := b.readDir(dir)
	if err != nil {
		return err
	}
	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := path.Join(dir, d.Name())
		info, err := d.Info()
		if err != nil {
			return err
		}

		mode := info.Mode()
		switch {
		case mode&fs.ModeSymlink != 0:
			b.cfg.log().Debug("skipped symlink", "path", rel)
		case mode.IsDir():
			sub, err := into.AddFolder(d.Name())
			if err != nil {
				return fmt.Errorf("add %s: %w", rel, err)
			}
			if err := b.walk(ctx, rel, sub); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := b.addFile(rel, info, into); err != nil {
				return err
			}
		default:
			b.cfg.log().Debug("skipped non-regular file", "path", rel, "mode", mode.String())
		}
	}
	return nil
}

func (b *builder) readDir(dir string) ([]fs.DirEntry, error) {
	name := "."
	if dir != "" {
		name = filepath.FromSlash(dir)
	}
	f, err := b.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	if b.cfg.order == OrderSorted {
		slices.SortFunc(entries, func(x, y fs.DirEntry) int {
			return strings.Compare(x.Name(), y.Name())
		})
	}
	return entries, nil
}

func (b *builder) addFile(rel string, info fs.FileInfo, into folder) error {
	if info.Size() < 0 {
		return fmt.Errorf("negative file size: %s", rel)
	}
	size := uint64(info.Size())

	fileOpts := []content.FileOption{content.WithExecutable(platform.IsExecutable(info))}
	if b.cfg.integrity {
		in, err := b.hash(rel, size)
		if errors.Is(err, platform.ErrSymlink) {
			b.cfg.log().Debug("skipped symlink", "path", rel)
			return nil
		}
		if err != nil {
			return err
		}
		fileOpts = append(fileOpts, content.WithIntegrity(in))
	}

	f, err := content.NewFile(path.Base(rel), b.offset, size, fileOpts...)
	if err != nil {
		return &asartype.HeaderError{Entity: rel, Err: err}
	}
	if err := into.AddFile(f); err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}

	next, ok := sizing.AddUint64(b.offset, size)
	if !ok {
		return asartype.ErrSizeOverflow
	}
	b.offset = next
	b.list = append(b.list, Item{Path: rel, Size: size})
	return nil
}

// hash computes integrity metadata over the first size bytes of rel.
func (b *builder) hash(rel string, size uint64) (*content.Integrity, error) {
	f, err := platform.OpenFileNoFollow(b.root, filepath.FromSlash(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := sizing.ToInt64(size, asartype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	w := content.NewIntegrityWriter(b.cfg.blockSize)
	copied, err := io.CopyN(w, f, n)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("hash %s: %w", rel, err)
	}
	if copied != n {
		return nil, fmt.Errorf("%w: %s", asartype.ErrFileChanged, rel)
	}
	return w.Sum(), nil
}
