// Package pathutil provides path handling for slash-separated archive entry paths.
package pathutil

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/meigma/corpus/internal/archivetype"
)

// ErrEmptyPath is returned when an entry carries no path at all.
var ErrEmptyPath = errors.New("empty entry path")

// Normalize converts a raw entry name to its canonical slash-separated form.
//
// It performs the following transformations:
//   - Strips trailing slashes: "a/b/" → "a/b"
//   - Strips leading "./" segments: "./a/b" → "a/b"
//   - Collapses consecutive slashes and resolves "." and ".." lexically
//   - Converts the archive root ("./", ".") to "."
//
// Leading ".." segments and leading slashes survive normalization so that
// Local can reject them.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	return path.Clean(name)
}

// Local validates an entry name and returns the equivalent relative path in
// the host's path syntax. Absolute names and names that escape the root
// return an error wrapping archivetype.ErrUnsafePath.
func Local(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}
	clean := Normalize(name)
	if strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%w: %q is absolute", archivetype.ErrUnsafePath, name)
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q escapes the root", archivetype.ErrUnsafePath, name)
	}
	return local, nil
}
