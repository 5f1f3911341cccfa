package corpus

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/meigma/corpus/internal/codec"
	"github.com/meigma/corpus/internal/ioutil"
	"github.com/meigma/corpus/internal/tarsource"
)

// readBufferSize sizes the buffered reader in front of the decompressor. It
// must be large enough for codec.Detect to peek at a tar header.
const readBufferSize = 64 * 1024

// Reader yields the entries of one corpus archive in stored order.
//
// A Reader is forward-only and not restartable; open a new one to iterate
// again. It is not safe for concurrent use.
type Reader struct {
	file        *os.File
	dec         io.ReadCloser
	src         *tarsource.Source
	counter     *ioutil.CountingReader
	compression Compression
	closed      bool
}

// Interface compliance.
var _ EntrySource = (*Reader)(nil)

// OpenReader opens the archive at path.
//
// The compression format is detected from the leading bytes unless
// ReaderWithCompression is given. A missing or unreadable file returns an
// error wrapping ErrOpen; unrecognized or invalid compression framing
// returns an error wrapping ErrDecode.
func OpenReader(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // stat error takes precedence
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	if info.IsDir() {
		_ = f.Close() //nolint:errcheck // read-only handle
		return nil, fmt.Errorf("%w %s: is a directory", ErrOpen, path)
	}

	r, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // decode error takes precedence
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}
	r.file = f
	return r, nil
}

// NewReader returns a Reader over an archive stream. The caller keeps
// ownership of r; Close releases only the decompressor.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := readerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	counter := &ioutil.CountingReader{R: r}
	br := bufio.NewReaderSize(counter, readBufferSize)
	compression := cfg.compression
	if !cfg.compressionSet {
		detected, err := codec.Detect(br)
		if err != nil {
			return nil, err
		}
		compression = detected
	}

	dec, err := codec.NewDecoder(compression, br, codec.DecoderOptions{MaxMemory: cfg.maxDecoderMemory})
	if err != nil {
		return nil, err
	}
	return &Reader{
		dec:         dec,
		src:         tarsource.New(dec),
		counter:     counter,
		compression: compression,
	}, nil
}

// Compression returns the compression used by the archive.
func (r *Reader) Compression() Compression {
	return r.compression
}

// CompressedBytes returns the number of archive bytes consumed so far,
// including read-ahead buffered for decompression.
func (r *Reader) CompressedBytes() uint64 {
	return r.counter.N
}

// Next returns the next entry, or io.EOF once the archive is exhausted.
//
// Any unread payload of the previous entry is skipped. Malformed headers
// and missing paths return an error wrapping ErrEntryRead; decompression
// failures return an error wrapping ErrDecode. Errors are sticky.
func (r *Reader) Next() (Entry, error) {
	if r.closed {
		return Entry{}, os.ErrClosed
	}
	return r.src.Next()
}

// Entries returns an iterator over the remaining entries. Iteration stops
// after the first error, which is yielded with a zero Entry.
func (r *Reader) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			entry, err := r.Next()
			if err == io.EOF { //nolint:errorlint // io.EOF is returned unwrapped by contract
				return
			}
			if !yield(entry, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the decompressor and, for readers created by OpenReader,
// the archive file. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	decErr := r.dec.Close()
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
	}
	return decErr
}
