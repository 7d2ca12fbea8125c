package content

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar/internal/asartype"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestIntegrityWriterBlocks(t *testing.T) {
	data := []byte("0123456789")

	tests := []struct {
		name      string
		blockSize int
		writes    []int
		blocks    []string
	}{
		{"single short block", 16, []int{10}, []string{"0123456789"}},
		{"exact multiple", 5, []int{10}, []string{"01234", "56789", ""}},
		{"remainder", 4, []int{10}, []string{"0123", "4567", "89"}},
		{"split writes", 4, []int{3, 3, 4}, []string{"0123", "4567", "89"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewIntegrityWriter(tt.blockSize)
			rest := data
			for _, n := range tt.writes {
				written, err := w.Write(rest[:n])
				require.NoError(t, err)
				require.Equal(t, n, written)
				rest = rest[n:]
			}

			in := w.Sum()
			assert.Equal(t, digest.FromBytes(data), in.Hash)
			assert.Equal(t, uint32(tt.blockSize), in.BlockSize) //nolint:gosec // test sizes are small
			want := make([]digest.Digest, len(tt.blocks))
			for i, b := range tt.blocks {
				want[i] = digest.FromString(b)
			}
			assert.Equal(t, want, in.Blocks)
		})
	}
}

func TestIntegrityWriterClampsBlockSize(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("block sizes above MaxBlockSize need a 64-bit int")
	}
	w := NewIntegrityWriter(math.MaxInt)
	_, _ = w.Write([]byte("abc"))
	in := w.Sum()
	assert.Equal(t, uint32(MaxBlockSize), in.BlockSize)
	assert.Equal(t, digest.FromBytes([]byte("abc")), in.Hash)
	assert.Equal(t, []digest.Digest{digest.FromBytes([]byte("abc"))}, in.Blocks)
}

func TestIntegrityWriterEmpty(t *testing.T) {
	in := NewIntegrityWriter(0).Sum()
	assert.Equal(t, emptySHA256, in.Hash.Encoded())
	assert.Equal(t, uint32(DefaultBlockSize), in.BlockSize)
	require.Len(t, in.Blocks, 1)
	assert.Equal(t, emptySHA256, in.Blocks[0].Encoded())
}

func TestIntegrityVerifier(t *testing.T) {
	w := NewIntegrityWriter(4)
	_, _ = io.Copy(w, strings.NewReader("hello world"))
	in := w.Sum()

	v := in.Verifier()
	_, _ = v.Write([]byte("hello world"))
	assert.True(t, v.Verified())

	v = in.Verifier()
	_, _ = v.Write([]byte("hello there"))
	assert.False(t, v.Verified())
}

func TestIntegrityRoundTrip(t *testing.T) {
	w := NewIntegrityWriter(4)
	_, _ = w.Write(bytes.Repeat([]byte{'x'}, 9))
	in := w.Sum()

	root := NewRoot()
	f, err := NewFile("x.bin", 0, 9, WithIntegrity(in))
	require.NoError(t, err)
	require.NoError(t, root.AddFile(f))

	out, err := Encode(root)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"algorithm":"SHA256"`)
	assert.Contains(t, string(out), `"hash":"`+in.Hash.Encoded()+`"`)
	assert.Contains(t, string(out), `"blockSize":4`)

	parsed, err := Parse(out)
	require.NoError(t, err)
	e, ok := Find(parsed, "x.bin")
	require.True(t, ok)
	assert.Equal(t, in, e.(*File).Integrity())
}

func TestParseIntegrityErrors(t *testing.T) {
	tests := []struct {
		name      string
		integrity string
	}{
		{"not an object", `"abc"`},
		{"wrong algorithm", `{"algorithm":"MD5","hash":"` + emptySHA256 + `","blockSize":4,"blocks":[]}`},
		{"bad hash", `{"algorithm":"SHA256","hash":"zz","blockSize":4,"blocks":[]}`},
		{"zero block size", `{"algorithm":"SHA256","hash":"` + emptySHA256 + `","blockSize":0,"blocks":[]}`},
		{"missing blocks", `{"algorithm":"SHA256","hash":"` + emptySHA256 + `","blockSize":4}`},
		{"non-string block", `{"algorithm":"SHA256","hash":"` + emptySHA256 + `","blockSize":4,"blocks":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(`{"files":{"f":{"size":0,"offset":"0","integrity":` + tt.integrity + `}}}`))
			require.ErrorIs(t, err, asartype.ErrInvalidIntegrity)

			var he *asartype.HeaderError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, "f", he.Entity)
		})
	}
}
