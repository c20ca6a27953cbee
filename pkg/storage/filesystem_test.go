package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, 1024)
	require.NoError(t, err)

	name, err := store.SaveImage("Avatar.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	file, err := store.Open(name)
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "png-bytes", string(content))

	require.NoError(t, store.Delete(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(name))
	assert.NoError(t, store.Delete(""))
}

func TestLocalStorageRejectsUnsupportedAndLargeFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, 4)
	require.NoError(t, err)

	_, err = store.SaveImage("script.sh", strings.NewReader("echo"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = store.SaveImage("big.jpg", strings.NewReader("too large"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorageConfinesPaths(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "passwd"), store.Path("../../etc/passwd"))
	assert.Equal(t, filepath.Join(dir, "a.png"), store.Path("nested/a.png"))
}
