// Package codec selects and constructs the stream compressors wrapped
// around corpus tar containers.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/corpus/internal/archivetype"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	tarMagic  = []byte("ustar")
)

const (
	// tarBlockSize is the size of a tar header block.
	tarBlockSize = 512

	// tarMagicOffset is the offset of the magic field in a ustar/GNU header.
	tarMagicOffset = 257

	// Offsets of the header checksum field.
	tarChksumStart = 148
	tarChksumEnd   = 156
)

// Detect inspects the head of br without consuming it and reports the
// compression in use.
//
// Uncompressed tar is recognized by its header magic, by a leading zero
// block (an archive with no entries), or by a valid header checksum
// (pre-POSIX headers carry no magic).
func Detect(br *bufio.Reader) (archivetype.Compression, error) {
	head, err := br.Peek(tarBlockSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("%w: read header: %w", archivetype.ErrDecode, err)
	}
	switch {
	case len(head) == 0:
		return 0, fmt.Errorf("%w: empty archive", archivetype.ErrDecode)
	case bytes.HasPrefix(head, zstdMagic):
		return archivetype.CompressionZstd, nil
	case bytes.HasPrefix(head, gzipMagic):
		return archivetype.CompressionGzip, nil
	case bytes.HasPrefix(head, lz4Magic):
		return archivetype.CompressionLZ4, nil
	case isTarHeader(head):
		return archivetype.CompressionNone, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized compression format", archivetype.ErrDecode)
	}
}

// isTarHeader reports whether head starts with a complete tar header block
// or an end-of-archive zero block.
func isTarHeader(head []byte) bool {
	if len(head) < tarBlockSize {
		return false
	}
	block := head[:tarBlockSize]
	if bytes.HasPrefix(block[tarMagicOffset:], tarMagic) {
		return true
	}
	if !slices.ContainsFunc(block, func(b byte) bool { return b != 0 }) {
		return true
	}
	return validChecksum(block)
}

// validChecksum verifies the header checksum of a tar block. Both the
// unsigned and the historical signed byte sums are accepted.
func validChecksum(block []byte) bool {
	field := strings.Trim(string(block[tarChksumStart:tarChksumEnd]), " \x00")
	if field == "" {
		return false
	}
	want, err := strconv.ParseInt(field, 8, 64)
	if err != nil {
		return false
	}
	var unsigned, signed int64
	for i, b := range block {
		if i >= tarChksumStart && i < tarChksumEnd {
			b = ' '
		}
		unsigned += int64(b)
		signed += int64(int8(b)) //nolint:gosec // signed sum is the point
	}
	return want == unsigned || want == signed
}

// DecoderOptions configures NewDecoder.
type DecoderOptions struct {
	// MaxMemory bounds zstd decoder window memory. Zero applies no limit.
	MaxMemory uint64
}

// NewDecoder returns a reader that decompresses r with c.
//
// Read errors other than io.EOF from compressed streams are wrapped with
// archivetype.ErrDecode. The zstd decoder runs without background
// goroutines.
func NewDecoder(c archivetype.Compression, r io.Reader, opts DecoderOptions) (io.ReadCloser, error) {
	switch c {
	case archivetype.CompressionNone:
		return io.NopCloser(r), nil
	case archivetype.CompressionZstd:
		zopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if opts.MaxMemory > 0 {
			zopts = append(zopts, zstd.WithDecoderMaxMemory(opts.MaxMemory))
		}
		dec, err := zstd.NewReader(r, zopts...)
		if err != nil {
			return nil, fmt.Errorf("%w: create zstd decoder: %w", archivetype.ErrDecode, err)
		}
		return &decodeReader{r: dec.IOReadCloser()}, nil
	case archivetype.CompressionGzip:
		dec, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip header: %w", archivetype.ErrDecode, err)
		}
		return &decodeReader{r: dec}, nil
	case archivetype.CompressionLZ4:
		return &decodeReader{r: io.NopCloser(lz4.NewReader(r))}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %s", archivetype.ErrDecode, c)
	}
}

// NewEncoder returns a writer that compresses into w with c. Close flushes
// the compressor but does not close w.
func NewEncoder(c archivetype.Compression, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case archivetype.CompressionNone:
		return nopWriteCloser{w}, nil
	case archivetype.CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, nil
	case archivetype.CompressionGzip:
		enc, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("create gzip encoder: %w", err)
		}
		return enc, nil
	case archivetype.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// decodeReader tags decompression failures with archivetype.ErrDecode.
type decodeReader struct {
	r io.ReadCloser
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF { //nolint:errorlint // io.EOF is returned unwrapped by contract
		return n, fmt.Errorf("%w: %w", archivetype.ErrDecode, err)
	}
	return n, err
}

func (d *decodeReader) Close() error {
	return d.r.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
