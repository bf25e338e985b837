package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem(t *testing.T) {
	t.Parallel()

	t.Run("write then read", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		require.NoError(t, m.WriteFile("a/b/c.json", []byte("data"), 0644))

		got, err := m.ReadFile("a/b/c.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), got)
	})

	t.Run("read missing file", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		_, err := m.ReadFile("nope.json")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("implicit parent directories", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		require.NoError(t, m.WriteFile("root/folder/img.json", nil, 0644))

		assert.True(t, m.Exists("root"))
		assert.True(t, m.Exists("root/folder"))

		info, err := m.Stat("root/folder")
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("ReadDir lists immediate children sorted", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		require.NoError(t, m.WriteFile("root/z.json", nil, 0644))
		require.NoError(t, m.WriteFile("root/a.json", nil, 0644))
		require.NoError(t, m.WriteFile("root/sub/deep.json", nil, 0644))

		entries, err := m.ReadDir("root")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "a.json", entries[0].Name())
		assert.Equal(t, "sub", entries[1].Name())
		assert.True(t, entries[1].IsDir())
		assert.Equal(t, "z.json", entries[2].Name())
	})

	t.Run("ReadDir missing directory", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		_, err := m.ReadDir("missing")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("MkdirAll makes empty directories visible", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryFileSystem()
		require.NoError(t, m.MkdirAll("out/classes", 0755))
		assert.True(t, m.Exists("out/classes"))

		entries, err := m.ReadDir("out")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsDir())
	})
}

func TestWalkFiles(t *testing.T) {
	t.Parallel()

	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("root/b.json", nil, 0644))
	require.NoError(t, m.WriteFile("root/a/nested.json", nil, 0644))
	require.NoError(t, m.WriteFile("root/a/deep/x.json", nil, 0644))

	var paths []string
	err := WalkFiles(m, "root", func(path string) error {
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("root", "a", "deep", "x.json"),
		filepath.Join("root", "a", "nested.json"),
		filepath.Join("root", "b.json"),
	}, paths)
}

func TestWalkFilesStopsOnError(t *testing.T) {
	t.Parallel()

	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("root/a.json", nil, 0644))
	require.NoError(t, m.WriteFile("root/b.json", nil, 0644))

	sentinel := assert.AnError
	var count int
	err := WalkFiles(m, "root", func(path string) error {
		count++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, count)
}

func TestOSFileSystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := OSFileSystem{}

	path := filepath.Join(dir, "sub", "file.txt")
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fsys.WriteFile(path, []byte("hello"), 0644))

	got, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	assert.True(t, fsys.Exists(path))
	assert.False(t, fsys.Exists(filepath.Join(dir, "absent")))

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sub", entries[0].Name())
}
