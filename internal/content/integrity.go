package content

import (
	_ "crypto/sha256" // registers SHA256 for digest
	"hash"
	"math"

	"github.com/opencontainers/go-digest"
)

const (
	// IntegrityAlgorithm is the only algorithm name recorded in headers.
	IntegrityAlgorithm = "SHA256"

	// DefaultBlockSize is the block size used for per-block hashes (4 MiB).
	DefaultBlockSize = 4 << 20

	// MaxBlockSize is the largest block size a header can record.
	MaxBlockSize = math.MaxUint32
)

// Integrity records the SHA-256 of a file's content, plus the hash of
// each BlockSize-byte block. The last block is always recorded, even when
// it is empty.
type Integrity struct {
	Hash      digest.Digest
	BlockSize uint32
	Blocks    []digest.Digest
}

// Verifier returns a writer that reports whether the bytes written to it
// match the whole-file hash.
func (in *Integrity) Verifier() digest.Verifier {
	return in.Hash.Verifier()
}

// IntegrityWriter computes Integrity over the bytes written to it.
type IntegrityWriter struct {
	blockSize int
	whole     hash.Hash
	block     hash.Hash
	filled    int
	blocks    []digest.Digest
}

// NewIntegrityWriter returns an IntegrityWriter using blockSize-byte blocks.
// A non-positive blockSize selects DefaultBlockSize; sizes above
// MaxBlockSize are clamped to it.
func NewIntegrityWriter(blockSize int) *IntegrityWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if uint64(blockSize) > MaxBlockSize {
		blockSize = MaxBlockSize
	}
	return &IntegrityWriter{
		blockSize: blockSize,
		whole:     digest.SHA256.Hash(),
		block:     digest.SHA256.Hash(),
	}
}

// Write implements io.Writer. It never fails.
func (w *IntegrityWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.whole.Write(p)
	for len(p) > 0 {
		chunk := min(w.blockSize-w.filled, len(p))
		w.block.Write(p[:chunk])
		w.filled += chunk
		p = p[chunk:]
		if w.filled == w.blockSize {
			w.blocks = append(w.blocks, digest.NewDigest(digest.SHA256, w.block))
			w.block.Reset()
			w.filled = 0
		}
	}
	return n, nil
}

// Sum returns the integrity of everything written so far.
func (w *IntegrityWriter) Sum() *Integrity {
	blocks := make([]digest.Digest, len(w.blocks), len(w.blocks)+1)
	copy(blocks, w.blocks)
	blocks = append(blocks, digest.NewDigest(digest.SHA256, w.block))
	return &Integrity{
		Hash:      digest.NewDigest(digest.SHA256, w.whole),
		BlockSize: uint32(w.blockSize), //nolint:gosec // clamped to MaxBlockSize
		Blocks:    blocks,
	}
}
