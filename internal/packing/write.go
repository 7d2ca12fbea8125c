package packing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/platform"
	"github.com/meigma/asar/internal/sizing"
)

// Write encodes tree as the archive header and then appends the contents of
// every item in list, read from root, with nothing between them. It
// returns the data region address.
//
// tree and list must come from the same Build call. Write stops at the
// first error; bytes already written to w are not rolled back.
func Write(ctx context.Context, w io.Writer, root *os.Root, tree *content.Root, list List, opts ...Option) (uint64, error) {
	cfg := newConfig(opts)

	cfg.progress.Report(asartype.ProgressEvent{Stage: asartype.StageWritingHeader})
	text, err := content.Encode(tree)
	if err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}
	start, err := header.Write(w, text, cfg.padding)
	if err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	cfg.log().Debug("header written", "header_size", len(text), "start", start, "padding", cfg.padding.String())

	total := list.Total()
	buf := make([]byte, 32*1024)
	var done uint64
	for i, it := range list {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := copyItem(w, root, it, buf); err != nil {
			return 0, err
		}
		done += it.Size
		cfg.progress.Report(asartype.ProgressEvent{
			Stage:      asartype.StagePacking,
			Path:       it.Path,
			BytesDone:  done,
			BytesTotal: total,
			FilesDone:  i + 1,
			FilesTotal: len(list),
		})
	}
	return start, nil
}

// copyItem appends exactly it.Size bytes of the item's source file to w.
func copyItem(w io.Writer, root *os.Root, it Item, buf []byte) error {
	f, err := platform.OpenFileNoFollow(root, filepath.FromSlash(it.Path))
	if err != nil {
		return fmt.Errorf("open %s: %w", it.Path, err)
	}
	defer f.Close()

	before, err := f.Stat()
	if err != nil {
		return err
	}
	if err := checkUnchanged(it, before.Size()); err != nil {
		return err
	}

	n, err := sizing.ToInt64(it.Size, asartype.ErrSizeOverflow)
	if err != nil {
		return err
	}
	copied, err := io.CopyBuffer(w, io.LimitReader(f, n), buf)
	if err != nil {
		return fmt.Errorf("copy %s: %w", it.Path, err)
	}
	if copied != n {
		return fmt.Errorf("%w: %s", asartype.ErrFileChanged, it.Path)
	}

	after, err := f.Stat()
	if err != nil {
		return err
	}
	return checkUnchanged(it, after.Size())
}

// checkUnchanged verifies the source still has the size recorded in the
// header.
func checkUnchanged(it Item, size int64) error {
	if size < 0 || uint64(size) != it.Size {
		return fmt.Errorf("%w: %s", asartype.ErrFileChanged, it.Path)
	}
	return nil
}
