package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "results/benchmark_20250101_120000.json", Key("out/benchmark_20250101_120000.json"))
	assert.Equal(t, "results/x.json", Key("x.json"))
}

func TestFilesystemPutGetList(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "archive")
	store, err := NewFilesystem(root)
	require.NoError(t, err)
	assert.Equal(t, DriverFS, store.Driver())

	info, err := store.Put(ctx, "results/a.json", strings.NewReader(`{"runs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "results/a.json", info.Key)
	assert.Equal(t, int64(11), info.Size)

	_, err = store.Put(ctx, "results/b.json", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "other/c.json", strings.NewReader("c"))
	require.NoError(t, err)

	rc, got, err := store.Get(ctx, "results/a.json")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"runs":[]}`, string(body))
	assert.Equal(t, info.Size, got.Size)

	list, err := store.List(ctx, ResultsPrefix)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "results/a.json", list[0].Key)
	assert.Equal(t, "results/b.json", list[1].Key)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFilesystemCreateOnly(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	_, err = store.Put(ctx, "results/a.json", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "results/a.json", strings.NewReader("second"))
	assert.ErrorIs(t, err, ErrExists)

	rc, _, err := store.Get(ctx, "results/a.json")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "first", string(body))
}

func TestFilesystemRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFilesystem(root)
	require.NoError(t, err)
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "results/../../escape"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemGetMissing(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	_, _, err = store.Get(context.Background(), "results/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFS, store.Driver())

	_, err = Open(ctx, Options{Driver: DriverS3})
	assert.ErrorContains(t, err, "bucket required")

	_, err = Open(ctx, Options{Driver: "ftp"})
	assert.ErrorContains(t, err, "unknown blob driver")
}
