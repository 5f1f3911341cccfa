package ioutil

import "io"

// DefaultBufferSize is the copy buffer size used for entry payloads.
const DefaultBufferSize = 32 * 1024

// SourceError marks an error returned by the source side of Copy, so callers
// can tell a failed read apart from a failed write.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying read error.
func (e *SourceError) Unwrap() error { return e.Err }

// Copy copies from src to dst until EOF or error using buf. It returns the
// number of bytes written. Read errors are returned as *SourceError; write
// errors are returned unchanged.
//
//nolint:gocognit // Follows stdlib io.Copy pattern; complexity is inherent to correct I/O handling
func Copy(dst io.Writer, src io.Reader, buf []byte) (uint64, error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultBufferSize)
	}
	var written uint64
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if err := add(&written, nw); err != nil {
				return written, err
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return written, nil
			}
			return written, &SourceError{Err: er}
		}
	}
}
