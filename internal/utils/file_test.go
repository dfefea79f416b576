package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPath(t *testing.T) {
	root := t.TempDir()

	p, err := UploadPath(root, 3, "shots/sub/cat.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "3", "cat.png"), p)

	// the base name is kept verbatim
	p, err = UploadPath(root, 0, "shots/my:shot.png")
	require.NoError(t, err)
	assert.Equal(t, "my:shot.png", filepath.Base(p))

	p, err = UploadPath(root, 1, "notes.png.")
	require.NoError(t, err)
	assert.Equal(t, "notes.png.", filepath.Base(p))

	// traversal collapses to a base name under root
	p, err = UploadPath(root, 2, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2", "passwd"), p)

	a, err := UploadPath(root, 0, "x/a.png")
	require.NoError(t, err)
	b, err := UploadPath(root, 1, "y/a.png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, bad := range []string{"", "..", "/", "shots/.."} {
		_, err = UploadPath(root, 0, bad)
		assert.Error(t, err, bad)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	n, err := WriteFile(path, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
