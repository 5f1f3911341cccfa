package platform

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRegular(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed"), []byte("input"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	t.Run("regular file", func(t *testing.T) {
		f, info, err := OpenRegular(root, "seed")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, int64(5), info.Size())
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "input", string(data))
	})

	t.Run("directory", func(t *testing.T) {
		_, _, err := OpenRegular(root, "sub")
		require.ErrorIs(t, err, ErrNotRegular)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := OpenRegular(root, "absent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("symlink", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges on windows")
		}
		require.NoError(t, os.Symlink("seed", filepath.Join(dir, "link")))
		_, _, err := OpenRegular(root, "link")
		require.ErrorIs(t, err, ErrSymlink)
	})
}
