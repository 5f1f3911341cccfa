// Package ioutil provides the byte-counting and copy helpers shared by the
// archive reader, builder and materializer.
package ioutil

import (
	"errors"
	"io"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// add advances *total by n, refusing to wrap.
func add(total *uint64, n int) error {
	if n <= 0 {
		return nil
	}
	delta := uint64(n)
	if *total > ^uint64(0)-delta {
		return ErrOverflow
	}
	*total += delta
	return nil
}

// CountingReader counts the archive bytes pulled through it. The reader
// uses it to report how much compressed input an export consumed.
type CountingReader struct {
	R io.Reader
	N uint64
}

func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.R.Read(p)
	if cerr := add(&cr.N, n); cerr != nil {
		return n, cerr
	}
	return n, err
}

// CountingWriter counts bytes written through it. The builder places it
// under the compressor so N is the final archive size.
type CountingWriter struct {
	W io.Writer
	N uint64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if cerr := add(&cw.N, n); cerr != nil {
		return n, cerr
	}
	return n, err
}
