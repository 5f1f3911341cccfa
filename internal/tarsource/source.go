// Package tarsource adapts a decompressed tar stream to the archive entry
// sequence consumed by the materializer.
package tarsource

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/corpus/internal/archivetype"
	"github.com/meigma/corpus/internal/pathutil"
)

// Source yields entries from a tar stream in stored order.
//
// Source is forward-only: each call to Next skips whatever is left of the
// previous entry's payload.
type Source struct {
	tr   *tar.Reader
	err  error
	seen int
}

// New returns a Source reading tar records from r.
func New(r io.Reader) *Source {
	return &Source{tr: tar.NewReader(r)}
}

// Next returns the next entry, or io.EOF once the archive is exhausted.
// After a non-EOF error every subsequent call returns the same error.
func (s *Source) Next() (archivetype.Entry, error) {
	if s.err != nil {
		return archivetype.Entry{}, s.err
	}
	hdr, err := s.tr.Next()
	if errors.Is(err, tar.ErrInsecurePath) && hdr != nil {
		// Path safety is enforced where entries are materialized.
		err = nil
	}
	if err != nil {
		s.err = classify(err, s.seen)
		return archivetype.Entry{}, s.err
	}
	s.seen++

	kind := Kind(hdr.Typeflag)
	if hdr.Name == "" {
		s.err = fmt.Errorf("%w: entry %d: %w", archivetype.ErrEntryRead, s.seen, pathutil.ErrEmptyPath)
		return archivetype.Entry{}, s.err
	}
	return archivetype.Entry{
		Path:    pathutil.Normalize(hdr.Name),
		Kind:    kind,
		Size:    hdr.Size,
		Payload: &payloadReader{tr: s.tr, name: hdr.Name},
	}, nil
}

// Kind maps a tar typeflag to an entry kind. Unrecognized flags are
// KindOther.
func Kind(flag byte) archivetype.EntryKind {
	switch flag {
	case tar.TypeDir:
		return archivetype.KindDirectory
	case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // old archives still carry the NUL typeflag
		return archivetype.KindRegular
	default:
		return archivetype.KindOther
	}
}

func classify(err error, seen int) error {
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, archivetype.ErrDecode):
		return err
	default:
		return fmt.Errorf("%w: header after entry %d: %w", archivetype.ErrEntryRead, seen, err)
	}
}

// payloadReader tags failures reading an entry body with the entry name.
type payloadReader struct {
	tr   *tar.Reader
	name string
}

func (p *payloadReader) Read(b []byte) (int, error) {
	n, err := p.tr.Read(b)
	if err == nil || err == io.EOF { //nolint:errorlint // io.EOF is returned unwrapped by contract
		return n, err
	}
	if errors.Is(err, archivetype.ErrDecode) {
		return n, err
	}
	return n, fmt.Errorf("%w: payload of %s: %w", archivetype.ErrEntryRead, p.name, err)
}
