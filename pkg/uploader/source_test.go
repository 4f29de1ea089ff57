package uploader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text body"), 0o644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(15), src.Size())
	assert.Equal(t, "notes.txt", src.Name())
	assert.Contains(t, src.ContentType(), "text/plain")

	buf := make([]byte, 4)
	_, err = src.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "text", string(buf))

	meta := src.Metadata()
	assert.Equal(t, FileMetadata{Name: "notes.txt", Size: 15, ContentType: src.ContentType()}, meta)
}

func TestOpenFileRejectsDirectory(t *testing.T) {
	_, err := OpenFile(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "absent.mp4"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
