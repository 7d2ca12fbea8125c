package asar

import (
	"log/slog"

	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/packing"
)

// Order controls the order in which a directory's children are walked.
type Order = packing.Order

const (
	// OrderSorted walks children sorted by name. It is the default and
	// makes packing reproducible.
	OrderSorted = packing.OrderSorted

	// OrderNative walks children in the order the filesystem lists them.
	OrderNative = packing.OrderNative
)

// ParseOrder parses "sorted" or "native".
func ParseOrder(s string) (Order, error) { return packing.ParseOrder(s) }

// Padding selects how the header text is aligned before the data region.
type Padding = header.Padding

const (
	// PaddingNone writes no padding. It is the default.
	PaddingNone = header.PaddingNone

	// Padding4 aligns the data region to a multiple of 4 bytes after the prefix.
	Padding4 = header.Padding4

	// Padding8 aligns the data region to a multiple of 8 bytes after the prefix.
	Padding8 = header.Padding8
)

// ParsePadding parses "none", "4" or "8".
func ParsePadding(s string) (Padding, error) { return header.ParsePadding(s) }

type openConfig struct {
	logger       *slog.Logger
	strictMarker bool
	order        Order
	integrity    bool
	blockSize    int
	progress     ProgressFunc
}

// Option configures Open, OpenFile, OpenDir and New.
type Option func(*openConfig)

// WithLogger sets the logger for the archive and everything it does.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *openConfig) {
		c.logger = logger
	}
}

// WithStrictMarker controls whether a first prefix field other than 4 is
// rejected. It defaults to true.
func WithStrictMarker(strict bool) Option {
	return func(c *openConfig) {
		c.strictMarker = strict
	}
}

// WithOrder sets the walk order used when opening a directory.
func WithOrder(o Order) Option {
	return func(c *openConfig) {
		c.order = o
	}
}

// WithIntegrity makes opening a directory hash every file so that Pack
// records integrity metadata for it. A non-positive blockSize selects
// the 4 MiB default.
func WithIntegrity(enabled bool, blockSize int) Option {
	return func(c *openConfig) {
		c.integrity = enabled
		c.blockSize = blockSize
	}
}

// WithProgress sets a callback that receives the StageEnumerating event
// when a directory is opened.
func WithProgress(fn ProgressFunc) Option {
	return func(c *openConfig) {
		c.progress = fn
	}
}

func newOpenConfig(opts []Option) openConfig {
	cfg := openConfig{strictMarker: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// PackOption configures Archive.Pack.
type PackOption func(*packConfig)

type packConfig struct {
	padding  Padding
	progress ProgressFunc
	logger   *slog.Logger
}

// PackWithPadding sets the header padding variant.
func PackWithPadding(p Padding) PackOption {
	return func(c *packConfig) {
		c.padding = p
	}
}

// PackWithProgress sets a callback to receive progress updates.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(c *packConfig) {
		c.progress = fn
	}
}

// PackWithLogger overrides the archive's logger for one Pack call.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(c *packConfig) {
		c.logger = logger
	}
}

// ExtractOption configures Archive.Extract and Archive.ReadFile.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	verify   bool
	progress ProgressFunc
	logger   *slog.Logger
}

// ExtractWithVerify controls whether recorded integrity hashes are checked.
// It defaults to true.
func ExtractWithVerify(verify bool) ExtractOption {
	return func(c *extractConfig) {
		c.verify = verify
	}
}

// ExtractWithProgress sets a callback to receive progress updates.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}

// ExtractWithLogger overrides the archive's logger for one call.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(c *extractConfig) {
		c.logger = logger
	}
}
