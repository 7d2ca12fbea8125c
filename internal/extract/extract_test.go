package extract

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar/internal/asartype"
	"github.com/meigma/asar/internal/content"
	"github.com/meigma/asar/internal/header"
	"github.com/meigma/asar/internal/testutil"
)

type archive struct {
	src   *testutil.MockByteSource
	start uint64
	tree  *content.Root
}

func openArchive(t *testing.T, headerJSON string, data []byte) archive {
	t.Helper()
	src := testutil.NewMockByteSource(testutil.BuildArchive(headerJSON, data))
	h, err := header.Read(src)
	require.NoError(t, err)
	tree, err := content.Parse(h.JSON)
	require.NoError(t, err)
	return archive{src: src, start: h.Start, tree: tree}
}

func sample(t *testing.T) (archive, map[string][]byte) {
	t.Helper()
	data, files := testutil.SampleData()
	return openArchive(t, testutil.SampleHeader, data), files
}

func TestExtractSample(t *testing.T) {
	t.Parallel()
	a, files := sample(t)
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Extract(context.Background(), a.src, a.start, a.tree, dest))

	want := map[string][]byte{"folder1/": nil}
	for name, data := range files {
		want[name] = data
	}
	assert.Equal(t, want, testutil.ReadTree(t, dest))
}

func TestExtractEmptyFolderAndFile(t *testing.T) {
	t.Parallel()
	a := openArchive(t, `{"files":{"empty":{"files":{}},"zero":{"size":0,"offset":"0"}}}`, nil)
	dest := t.TempDir()

	require.NoError(t, Extract(context.Background(), a.src, a.start, a.tree, dest))
	assert.Equal(t, map[string][]byte{"empty/": nil, "zero": {}}, testutil.ReadTree(t, dest))
}

func TestExtractOverwrites(t *testing.T) {
	t.Parallel()
	a, files := sample(t)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "test1.txt"), []byte("this is much longer than 21 bytes of text"), 0o644))

	require.NoError(t, Extract(context.Background(), a.src, a.start, a.tree, dest))
	got, err := os.ReadFile(filepath.Join(dest, "test1.txt"))
	require.NoError(t, err)
	assert.Equal(t, files["test1.txt"], got)
}

func TestExtractTruncatedData(t *testing.T) {
	t.Parallel()
	data, _ := testutil.SampleData()
	a := openArchive(t, testutil.SampleHeader, data[:100])

	err := Extract(context.Background(), a.src, a.start, a.tree, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder1/test_image.jpg")
}

func TestExtractProgress(t *testing.T) {
	t.Parallel()
	a, _ := sample(t)

	var events []asartype.ProgressEvent
	err := Extract(context.Background(), a.src, a.start, a.tree, t.TempDir(),
		WithProgress(func(ev asartype.ProgressEvent) { events = append(events, ev) }))
	require.NoError(t, err)

	require.Len(t, events, 3)
	last := events[2]
	assert.Equal(t, asartype.StageExtracting, last.Stage)
	assert.Equal(t, "test1.txt", last.Path)
	assert.Equal(t, 3, last.FilesDone)
	assert.Equal(t, last.BytesTotal, last.BytesDone)
}

func TestExtractCanceled(t *testing.T) {
	t.Parallel()
	a, _ := sample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Extract(ctx, a.src, a.start, a.tree, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func integrityHeader(data []byte) string {
	d := digest.FromBytes(data).Encoded()
	return `{"files":{"f":{"size":5,"offset":"0","integrity":{"algorithm":"SHA256","hash":"` + d +
		`","blockSize":4194304,"blocks":["` + d + `"]}}}}`
}

func TestExtractVerifiesIntegrity(t *testing.T) {
	t.Parallel()

	good := openArchive(t, integrityHeader([]byte("hello")), []byte("hello"))
	require.NoError(t, Extract(context.Background(), good.src, good.start, good.tree, t.TempDir()))

	bad := openArchive(t, integrityHeader([]byte("hello")), []byte("jello"))
	err := Extract(context.Background(), bad.src, bad.start, bad.tree, t.TempDir())
	require.ErrorIs(t, err, asartype.ErrHashMismatch)

	require.NoError(t, Extract(context.Background(), bad.src, bad.start, bad.tree, t.TempDir(), WithVerify(false)))
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	a, files := sample(t)

	for name, want := range files {
		got, ok := ReadFile(a.src, a.start, a.tree, name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestReadFileNoData(t *testing.T) {
	t.Parallel()
	a, _ := sample(t)

	for _, p := range []string{"", "folder1", "does/not/exist", "test1.txt/x"} {
		got, ok := ReadFile(a.src, a.start, a.tree, p)
		assert.False(t, ok, p)
		assert.Nil(t, got, p)
	}
}

func TestReadFileTruncated(t *testing.T) {
	t.Parallel()
	data, _ := testutil.SampleData()
	a := openArchive(t, testutil.SampleHeader, data[:30030])

	_, ok := ReadFile(a.src, a.start, a.tree, "test1.txt")
	assert.False(t, ok)

	got, ok := ReadFile(a.src, a.start, a.tree, "folder1/script.py")
	assert.True(t, ok)
	assert.Len(t, got, 55)
}

func TestReadFileSizeBeyondData(t *testing.T) {
	t.Parallel()
	a := openArchive(t, `{"files":{"big":{"size":9007199254740991,"offset":"0"},"ok":{"size":3,"offset":"0"}}}`, []byte("abc"))

	tests := []struct {
		name string
		src  io.ReaderAt
	}{
		{"sized source", a.src},
		{"plain reader", struct{ io.ReaderAt }{a.src}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var ok bool
			require.NotPanics(t, func() { _, ok = ReadFile(tt.src, a.start, a.tree, "big") })
			assert.False(t, ok)

			got, ok := ReadFile(tt.src, a.start, a.tree, "ok")
			require.True(t, ok)
			assert.Equal(t, []byte("abc"), got)
		})
	}
}

func TestReadFileIntegrity(t *testing.T) {
	t.Parallel()
	bad := openArchive(t, integrityHeader([]byte("hello")), []byte("jello"))

	_, ok := ReadFile(bad.src, bad.start, bad.tree, "f")
	assert.False(t, ok)

	got, ok := ReadFile(bad.src, bad.start, bad.tree, "f", WithVerify(false))
	assert.True(t, ok)
	assert.Equal(t, []byte("jello"), got)
}
