package packing

import (
	"fmt"
	"log/slog"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/header"
)

// Order controls the order in which a directory's children are walked,
// which fixes both header order and file offsets.
type Order uint8

const (
	// OrderSorted walks children sorted by name, giving reproducible
	// archives.
	OrderSorted Order = iota

	// OrderNative walks children in the order the filesystem lists them.
	OrderNative
)

// String returns the name of the order.
func (o Order) String() string {
	switch o {
	case OrderSorted:
		return "sorted"
	case OrderNative:
		return "native"
	default:
		return "unknown"
	}
}

// ParseOrder parses the names returned by Order.String.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "sorted":
		return OrderSorted, nil
	case "native":
		return OrderNative, nil
	default:
		return OrderSorted, fmt.Errorf("unknown order %q", s)
	}
}

type config struct {
	order     Order
	padding   header.Padding
	integrity bool
	blockSize int
	logger    *slog.Logger
	progress  asartype.ProgressFunc
}

// Option configures Build and Write.
type Option func(*config)

// WithOrder sets the child enumeration order used by Build.
func WithOrder(o Order) Option {
	return func(c *config) {
		c.order = o
	}
}

// WithPadding sets the header padding variant used by Write.
func WithPadding(p header.Padding) Option {
	return func(c *config) {
		c.padding = p
	}
}

// WithIntegrity makes Build hash every file and record integrity metadata.
// A non-positive blockSize selects content.DefaultBlockSize. Build rejects
// sizes above content.MaxBlockSize.
func WithIntegrity(enabled bool, blockSize int) Option {
	return func(c *config) {
		c.integrity = enabled
		c.blockSize = blockSize
	}
}

// WithLogger sets the logger for packing operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress sets a callback to receive progress updates.
func WithProgress(fn asartype.ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

func newConfig(opts []Option) config {
	var cfg config
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
