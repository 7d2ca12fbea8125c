package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/asar"
)

func setupList(fs *pflag.FlagSet) runFunc {
	pattern := fs.String("pattern", "", "only list paths whose final element contains this substring")
	order := fs.String("order", "", "walk order when listing a directory: sorted or native")

	return func(ctx context.Context, e *env, args []string) error {
		if fs.Changed("order") {
			if _, err := asar.ParseOrder(*order); err != nil {
				return err
			}
			e.cfg.Pack.Order = *order
		}

		a, err := asar.Open(ctx, args[0], e.openOptions()...)
		if err != nil {
			return err
		}
		defer a.Close()

		paths := a.List()
		if fs.Changed("pattern") {
			paths = a.PathsContaining(*pattern)
		}
		for _, p := range paths {
			fmt.Fprintln(e.stdout, p)
		}
		return nil
	}
}

func setupExtract(fs *pflag.FlagSet) runFunc {
	verify := fs.Bool("verify", true, "check integrity hashes when present")

	return func(ctx context.Context, e *env, args []string) error {
		if fs.Changed("verify") {
			e.cfg.Extract.Verify = *verify
		}

		a, err := asar.OpenFile(args[0], e.openOptions()...)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Extract(ctx, args[1], asar.ExtractWithVerify(e.cfg.Extract.Verify))
	}
}

func setupExtractFile(fs *pflag.FlagSet) runFunc {
	output := fs.StringP("output", "o", "", "write to this file instead of stdout")
	verify := fs.Bool("verify", true, "check the integrity hash when present")

	return func(_ context.Context, e *env, args []string) error {
		if fs.Changed("verify") {
			e.cfg.Extract.Verify = *verify
		}

		a, err := asar.OpenFile(args[0], e.openOptions()...)
		if err != nil {
			return err
		}
		defer a.Close()

		data, ok := a.ReadFile(args[1], asar.ExtractWithVerify(e.cfg.Extract.Verify))
		if !ok {
			return fmt.Errorf("%s: no readable file at %q", args[0], args[1])
		}
		if *output != "" {
			return os.WriteFile(*output, data, 0o644) //nolint:gosec // extracted files are not secret
		}
		_, err = e.stdout.Write(data)
		return err
	}
}

func setupPack(fs *pflag.FlagSet) runFunc {
	order := fs.String("order", "", "directory walk order: sorted or native")
	padding := fs.String("padding", "", "header padding: none, 4 or 8")
	integrity := fs.Bool("integrity", false, "record SHA-256 integrity metadata for every file")
	blockSize := fs.Int("block-size", 0, "integrity block size in bytes (default 4 MiB)")

	return func(ctx context.Context, e *env, args []string) error {
		if fs.Changed("order") {
			e.cfg.Pack.Order = *order
		}
		if fs.Changed("padding") {
			e.cfg.Pack.Padding = *padding
		}
		if fs.Changed("integrity") {
			e.cfg.Pack.Integrity = *integrity
		}
		if fs.Changed("block-size") {
			e.cfg.Pack.BlockSize = *blockSize
		}
		if err := e.cfg.Validate(); err != nil {
			return err
		}
		pad, _ := asar.ParsePadding(e.cfg.Pack.Padding) //nolint:errcheck // validated above

		a, err := asar.OpenDir(ctx, args[0], e.openOptions()...)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Pack(ctx, args[1], asar.PackWithPadding(pad))
	}
}

// checkResult is the outcome of checking one archive.
type checkResult struct {
	files int
	bytes uint64
	err   error
}

func setupCheck(fs *pflag.FlagSet) runFunc {
	jobs := fs.IntP("jobs", "j", 0, "archives to check concurrently (default number of CPUs)")

	return func(ctx context.Context, e *env, args []string) error {
		if fs.Changed("jobs") {
			e.cfg.Check.Jobs = *jobs
		}
		if err := e.cfg.Validate(); err != nil {
			return err
		}

		results := make([]checkResult, len(args))
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Check.Jobs)
		for i, path := range args {
			g.Go(func() error {
				results[i] = checkArchive(ctx, e, path)
				return ctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for i, r := range results {
			if r.err != nil {
				failed++
				fmt.Fprintf(e.stdout, "FAIL\t%s\t%v\n", args[i], r.err)
				continue
			}
			fmt.Fprintf(e.stdout, "ok\t%s\t%d files, %d bytes\n", args[i], r.files, r.bytes)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d archives failed", failed, len(args))
		}
		return nil
	}
}

// checkArchive opens path and reads back every file. Each call owns its
// Archive, so calls may run concurrently.
func checkArchive(ctx context.Context, e *env, path string) checkResult {
	a, err := asar.OpenFile(path, e.openOptions()...)
	if err != nil {
		return checkResult{err: err}
	}
	defer a.Close()

	var r checkResult
	for p, entry := range a.Entries() {
		if err := ctx.Err(); err != nil {
			return checkResult{err: err}
		}
		f, ok := entry.(*asar.File)
		if !ok {
			continue
		}
		if _, ok := a.ReadFile(p, asar.ExtractWithVerify(e.cfg.Extract.Verify)); !ok {
			return checkResult{err: fmt.Errorf("%s: unreadable or failed verification", p)}
		}
		r.files++
		r.bytes += f.Size()
	}
	e.logger.Debug("archive checked", "archive", path, "file_count", r.files)
	return r
}
