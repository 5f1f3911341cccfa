// Package platform holds the file opening rules used when walking a source
// tree into an archive.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrSymlink is returned when the path names a symbolic link.
	ErrSymlink = errors.New("symbolic link")

	// ErrNotRegular is returned when the path names something other than a
	// regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// OpenRegular opens name under root for reading and returns its info.
//
// The final path element is inspected with Lstat so a symlink is reported
// as ErrSymlink instead of being followed, and anything other than a
// regular file is rejected before it is opened. The opened handle must
// refer to the same file that was inspected.
func OpenRegular(root *os.Root, name string) (*os.File, fs.FileInfo, error) {
	linfo, err := root.Lstat(name)
	if err != nil {
		return nil, nil, err
	}
	if linfo.Mode()&fs.ModeSymlink != 0 {
		return nil, nil, ErrSymlink
	}
	if !linfo.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotRegular, name)
	}

	f, err := root.Open(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // stat error takes precedence
		return nil, nil, err
	}
	if !os.SameFile(linfo, info) {
		_ = f.Close() //nolint:errcheck // read-only handle
		return nil, nil, fmt.Errorf("file changed while opening: %s", name)
	}
	return f, info, nil
}
