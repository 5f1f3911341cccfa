package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/corpus/internal/archivetype"
	"github.com/meigma/corpus/internal/codec"
)

// TarEntry holds data for building a raw tar fixture.
type TarEntry struct {
	Name     string
	Typeflag byte
	Body     []byte
	Linkname string
}

// Dir returns a directory entry.
func Dir(name string) TarEntry {
	return TarEntry{Name: name, Typeflag: tar.TypeDir}
}

// File returns a regular file entry.
func File(name, body string) TarEntry {
	return TarEntry{Name: name, Typeflag: tar.TypeReg, Body: []byte(body)}
}

// Symlink returns a symbolic link entry.
func Symlink(name, target string) TarEntry {
	return TarEntry{Name: name, Typeflag: tar.TypeSymlink, Linkname: target}
}

// BuildTar writes entries to an uncompressed tar stream in the given order.
// Entries are not validated, so fixtures may carry unusual typeflags.
func BuildTar(tb testing.TB, entries []TarEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		mode := int64(0o644)
		if e.Typeflag == tar.TypeDir {
			mode = 0o755
		}
		hdr := &tar.Header{
			Name:     e.Name,
			Typeflag: e.Typeflag,
			Mode:     mode,
			Size:     int64(len(e.Body)),
			Linkname: e.Linkname,
			Format:   tar.FormatUSTAR,
		}
		require.NoError(tb, tw.WriteHeader(hdr))
		if len(e.Body) > 0 {
			_, err := tw.Write(e.Body)
			require.NoError(tb, err)
		}
	}
	require.NoError(tb, tw.Close())
	return buf.Bytes()
}

// Compress wraps data with the given compression.
func Compress(tb testing.TB, c archivetype.Compression, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	enc, err := codec.NewEncoder(c, &buf)
	require.NoError(tb, err)
	_, err = enc.Write(data)
	require.NoError(tb, err)
	require.NoError(tb, enc.Close())
	return buf.Bytes()
}

// WriteArchive builds a compressed tar from entries and writes it to
// dir/name. It returns the archive path.
func WriteArchive(tb testing.TB, dir, name string, c archivetype.Compression, entries []TarEntry) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	data := Compress(tb, c, BuildTar(tb, entries))
	require.NoError(tb, os.WriteFile(path, data, 0o600))
	return path
}

// WriteTree creates files under root from a map of slash-separated relative
// path to content. Keys ending in "/" create empty directories.
func WriteTree(tb testing.TB, root string, files map[string][]byte) {
	tb.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(name, "/")))
		if strings.HasSuffix(name, "/") {
			require.NoError(tb, os.MkdirAll(path, 0o750))
			continue
		}
		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(tb, os.WriteFile(path, content, 0o600))
	}
}

// ReadTree returns every object under root keyed by slash-separated
// relative path. Directories are keyed with a trailing "/" and a nil value.
func ReadTree(tb testing.TB, root string) map[string][]byte {
	tb.Helper()

	tree := make(map[string][]byte)
	err := fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		if d.IsDir() {
			tree[path+"/"] = nil
			return nil
		}
		data, err := fs.ReadFile(os.DirFS(root), path)
		if err != nil {
			return err
		}
		tree[path] = data
		return nil
	})
	require.NoError(tb, err)
	return tree
}

const blockSize = 512

// ClearName blanks the name field of entries[index] inside data, as produced
// by BuildTar from the same entries, and fixes up the header checksum. The
// result is a well-framed archive whose entry has no path.
func ClearName(tb testing.TB, data []byte, entries []TarEntry, index int) []byte {
	tb.Helper()
	require.Less(tb, index, len(entries))

	out := bytes.Clone(data)
	offset := 0
	for _, e := range entries[:index] {
		offset += blockSize + (len(e.Body)+blockSize-1)/blockSize*blockSize
	}
	hdr := out[offset : offset+blockSize]
	clear(hdr[0:100])

	// Checksum is computed with the checksum field itself set to spaces.
	copy(hdr[148:156], "        ")
	sum := 0
	for _, b := range hdr {
		sum += int(b)
	}
	copy(hdr[148:156], fmt.Sprintf("%06o\x00 ", sum))
	return out
}
