package packing

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/testutil"
)

func openRoot(t *testing.T, dir string) *os.Root {
	t.Helper()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })
	return root
}

func pack(t *testing.T, root *os.Root, opts ...Option) (archive []byte, tree *content.Root, list List) {
	t.Helper()
	tree, list, err := Build(context.Background(), root, opts...)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = Write(context.Background(), &buf, root, tree, list, opts...)
	require.NoError(t, err)
	return buf.Bytes(), tree, list
}

func fileAt(t *testing.T, tree *content.Root, p string) *content.File {
	t.Helper()
	e, ok := content.Find(tree, p)
	require.True(t, ok, p)
	f, isFile := e.(*content.File)
	require.True(t, isFile, p)
	return f
}

func TestContiguousOffsets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := bytes.Repeat([]byte{'a'}, 10)
	b := bytes.Repeat([]byte{'b'}, 5)
	testutil.WriteTree(t, dir, map[string][]byte{"A": a, "B": b})

	archive, tree, list := pack(t, openRoot(t, dir))

	assert.Equal(t, uint64(0), fileAt(t, tree, "A").Offset())
	assert.Equal(t, uint64(10), fileAt(t, tree, "B").Offset())
	assert.Equal(t, List{{Path: "A", Size: 10}, {Path: "B", Size: 5}}, list)

	h, err := header.Read(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Equal(t, append(a, b...), archive[h.Start:])
}

func TestBuildNested(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"b.txt":        []byte("bee"),
		"a/z.txt":      []byte("zed"),
		"a/y/deep.txt": []byte("deep"),
		"a/empty/":     nil,
		"c/":           nil,
	})

	tree, list, err := Build(context.Background(), openRoot(t, dir))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a",
		"a/empty",
		"a/y",
		"a/y/deep.txt",
		"a/z.txt",
		"b.txt",
		"c",
	}, slices.Collect(content.Paths(tree)))

	assert.Equal(t, List{
		{Path: "a/y/deep.txt", Size: 4},
		{Path: "a/z.txt", Size: 3},
		{Path: "b.txt", Size: 3},
	}, list)
	assert.Equal(t, uint64(10), list.Total())

	var offset uint64
	for _, it := range list {
		f := fileAt(t, tree, it.Path)
		assert.Equal(t, offset, f.Offset(), it.Path)
		assert.Equal(t, it.Size, f.Size(), it.Path)
		offset += it.Size
	}
}

func TestBuildNativeOrderIsContiguous(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"one":      []byte("1"),
		"two":      []byte("22"),
		"three":    []byte("333"),
		"sub/four": []byte("4444"),
	})

	tree, list, err := Build(context.Background(), openRoot(t, dir), WithOrder(OrderNative))
	require.NoError(t, err)
	require.Len(t, list, 4)

	var offset uint64
	for _, it := range list {
		assert.Equal(t, offset, fileAt(t, tree, it.Path).Offset(), it.Path)
		offset += it.Size
	}
	assert.Equal(t, uint64(10), offset)
}

func TestBuildEmptyDirectory(t *testing.T) {
	t.Parallel()
	archive, tree, list := pack(t, openRoot(t, t.TempDir()))

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, list)

	h, err := header.Read(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.JSONEq(t, `{"files":{}}`, string(h.JSON))
	assert.Equal(t, uint64(len(archive)), h.Start)
}

func TestWriteRoundTripsThroughParse(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, files := testutil.SampleData()
	testutil.WriteTree(t, dir, files)

	archive, _, _ := pack(t, openRoot(t, dir))

	h, err := header.Read(bytes.NewReader(archive))
	require.NoError(t, err)
	tree, err := content.Parse(h.JSON)
	require.NoError(t, err)

	for name, want := range files {
		f := fileAt(t, tree, name)
		off := h.Start + f.Offset()
		assert.Equal(t, want, archive[off:off+f.Size()], name)
	}
}

func TestWritePadding(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"x": []byte("payload")})

	archive, _, _ := pack(t, openRoot(t, dir), WithPadding(header.Padding8))

	h, err := header.Read(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Zero(t, (h.Start-header.PrefixSize)%8)
	assert.Equal(t, []byte("payload"), archive[h.Start:])
}

func TestBuildIntegrity(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	data := bytes.Repeat([]byte("0123456789"), 5)
	testutil.WriteTree(t, dir, map[string][]byte{"f.bin": data})

	archive, tree, _ := pack(t, openRoot(t, dir), WithIntegrity(true, 16))

	in := fileAt(t, tree, "f.bin").Integrity()
	require.NotNil(t, in)
	assert.Equal(t, digest.FromBytes(data), in.Hash)
	assert.Equal(t, uint32(16), in.BlockSize)
	assert.Len(t, in.Blocks, 4)

	h, err := header.Read(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Contains(t, string(h.JSON), in.Hash.Encoded())
}

func TestBuildRejectsOversizedBlockSize(t *testing.T) {
	t.Parallel()
	if strconv.IntSize < 64 {
		t.Skip("block sizes above MaxBlockSize need a 64-bit int")
	}
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"f": []byte("x")})

	_, _, err := Build(context.Background(), openRoot(t, dir), WithIntegrity(true, math.MaxInt))
	require.ErrorContains(t, err, "exceeds")

	_, _, err = Build(context.Background(), openRoot(t, dir), WithIntegrity(false, math.MaxInt))
	require.NoError(t, err)
}

func TestBuildWithoutIntegrity(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"f": []byte("x")})

	_, tree, _ := pack(t, openRoot(t, dir))
	assert.Nil(t, fileAt(t, tree, "f").Integrity())
}

func TestProgress(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a": []byte("12"), "b": []byte("345")})

	var events []asartype.ProgressEvent
	pack(t, openRoot(t, dir), WithProgress(func(ev asartype.ProgressEvent) {
		events = append(events, ev)
	}))

	require.Len(t, events, 4)
	assert.Equal(t, asartype.StageEnumerating, events[0].Stage)
	assert.Equal(t, asartype.StageWritingHeader, events[1].Stage)
	assert.Equal(t, asartype.ProgressEvent{
		Stage: asartype.StagePacking, Path: "b",
		BytesDone: 5, BytesTotal: 5, FilesDone: 2, FilesTotal: 2,
	}, events[3])
}

func TestWriteDetectsChangedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"grow": []byte("abc")})
	root := openRoot(t, dir)

	tree, list, err := Build(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grow"), []byte("abcdef"), 0o644))

	_, err = Write(context.Background(), &bytes.Buffer{}, root, tree, list)
	require.ErrorIs(t, err, asartype.ErrFileChanged)
}

func TestWriteMissingSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"gone": []byte("abc")})
	root := openRoot(t, dir)

	tree, list, err := Build(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "gone")))

	_, err = Write(context.Background(), &bytes.Buffer{}, root, tree, list)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "gone")
}

func TestBuildCanceled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"a": []byte("1")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Build(ctx, openRoot(t, dir))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseOrder(t *testing.T) {
	for _, o := range []Order{OrderSorted, OrderNative} {
		got, err := ParseOrder(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseOrder("random")
	require.Error(t, err)
}
