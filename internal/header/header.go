// Package header encodes and decodes the archive envelope: a 16-byte prefix
// of four little-endian uint32 fields followed by the JSON header text.
//
//	offset  0: 4                  envelope marker
//	offset  4: payloadSize + 4    size of the header envelope after this field
//	offset  8: payloadSize        length-prefixed string size (4 + text + padding)
//	offset 12: textLen            length of the JSON text in bytes
//	offset 16: JSON text, then optional zero padding
//
// The data region starts immediately after the padding. Without padding,
// payloadSize is textLen+4 and the data region starts at 16+textLen.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/meigma/asar/internal/asartype"
)

const (
	// PrefixSize is the size of the fixed prefix preceding the JSON text.
	PrefixSize = 16

	// Marker is the fixed value of the first prefix field.
	Marker = 4

	// maxPad is the largest alignment any supported padding variant uses.
	maxPad = 8
)

// Padding selects how the JSON text is aligned before the data region.
type Padding uint8

const (
	// PaddingNone writes no padding; the data region follows the JSON text.
	PaddingNone Padding = iota

	// Padding4 zero-pads the JSON text to a multiple of 4 bytes.
	Padding4

	// Padding8 zero-pads the JSON text to a multiple of 8 bytes.
	Padding8
)

// String returns the name of the padding variant.
func (p Padding) String() string {
	switch p {
	case PaddingNone:
		return "none"
	case Padding4:
		return "4"
	case Padding8:
		return "8"
	default:
		return "unknown"
	}
}

// ParsePadding parses the names returned by Padding.String.
func ParsePadding(s string) (Padding, error) {
	switch s {
	case "", "none", "0":
		return PaddingNone, nil
	case "4":
		return Padding4, nil
	case "8":
		return Padding8, nil
	default:
		return PaddingNone, fmt.Errorf("unknown padding %q", s)
	}
}

func (p Padding) align() int {
	switch p {
	case Padding4:
		return 4
	case Padding8:
		return 8
	default:
		return 1
	}
}

// padLen returns the number of zero bytes appended after n bytes of JSON text.
func (p Padding) padLen(n int) int {
	a := p.align()
	return (a - n%a) % a
}

// Header is a decoded envelope.
type Header struct {
	// JSON is the raw header text.
	JSON []byte

	// Start is the absolute address of the data region. Every file offset
	// in the header is relative to it.
	Start uint64
}

type sizer interface {
	Size() int64
}

type readConfig struct {
	strictMarker bool
}

// Option configures Read.
type Option func(*readConfig)

// WithStrictMarker controls whether Read rejects a first field other than
// Marker. It defaults to true.
func WithStrictMarker(strict bool) Option {
	return func(c *readConfig) {
		c.strictMarker = strict
	}
}

// Read decodes the envelope at the beginning of r.
//
// If r has a Size() int64 method, lengths are checked against it before any
// buffer is allocated. Read does not parse the JSON text.
func Read(r io.ReaderAt, opts ...Option) (*Header, error) {
	cfg := readConfig{strictMarker: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var prefix [PrefixSize]byte
	if err := readAt(r, prefix[:], 0); err != nil {
		return nil, readErr("prefix", err)
	}
	marker := binary.LittleEndian.Uint32(prefix[0:4])
	envelope := uint64(binary.LittleEndian.Uint32(prefix[4:8]))
	payload := uint64(binary.LittleEndian.Uint32(prefix[8:12]))
	textLen := uint64(binary.LittleEndian.Uint32(prefix[12:16]))

	if cfg.strictMarker && marker != Marker {
		return nil, fmt.Errorf("%w: bad envelope marker %d", asartype.ErrHeader, marker)
	}
	if payload < textLen+4 || payload-(textLen+4) >= maxPad {
		return nil, fmt.Errorf("%w: string size %d inconsistent with text length %d", asartype.ErrHeader, payload, textLen)
	}
	if envelope != payload+4 {
		return nil, fmt.Errorf("%w: envelope size %d inconsistent with string size %d", asartype.ErrHeader, envelope, payload)
	}

	start := 12 + payload
	if s, ok := r.(sizer); ok {
		if size := s.Size(); size < 0 || uint64(size) < PrefixSize+textLen {
			return nil, fmt.Errorf("%w: header text of %d bytes exceeds archive size %d", asartype.ErrHeader, textLen, size)
		}
	}
	if textLen > math.MaxInt32 {
		return nil, fmt.Errorf("%w: header text of %d bytes", asartype.ErrSizeOverflow, textLen)
	}

	text := make([]byte, textLen)
	if err := readAt(r, text, PrefixSize); err != nil {
		return nil, readErr("text", err)
	}
	return &Header{JSON: text, Start: start}, nil
}

// readAt fills p from r at off. A reader may return io.EOF alongside a full
// read at the end of its data; that is not an error.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated header %s", asartype.ErrHeader, what)
	}
	return fmt.Errorf("read header %s: %w", what, err)
}

// Start returns the data region address for a header of textLen bytes
// encoded with padding p.
func Start(textLen int, p Padding) uint64 {
	return uint64(PrefixSize + textLen + p.padLen(textLen)) //nolint:gosec // lengths are non-negative
}

// Encode returns the complete envelope for text: the prefix, the text, and
// any padding.
func Encode(text []byte, p Padding) ([]byte, error) {
	pad := p.padLen(len(text))
	payload := uint64(len(text)) + 4 + uint64(pad) //nolint:gosec // len is non-negative
	if payload+4 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: header text of %d bytes", asartype.ErrSizeOverflow, len(text))
	}

	buf := make([]byte, PrefixSize+len(text)+pad)
	binary.LittleEndian.PutUint32(buf[0:4], Marker)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(payload+4))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(payload))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(text))) //nolint:gosec // bounded by payload check
	copy(buf[PrefixSize:], text)
	return buf, nil
}

// Write encodes text with padding p to w and returns the data region address.
func Write(w io.Writer, text []byte, p Padding) (uint64, error) {
	buf, err := Encode(text, p)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(buf); err != nil {
		return 0, err
	}
	return uint64(len(buf)), nil
}
