package corpus

import "github.com/meigma/corpus/internal/archivetype"

// Compression identifies the compression wrapped around the tar container.
type Compression = archivetype.Compression

const (
	CompressionNone = archivetype.CompressionNone
	CompressionZstd = archivetype.CompressionZstd
	CompressionGzip = archivetype.CompressionGzip
	CompressionLZ4  = archivetype.CompressionLZ4
)

// ParseCompression parses a compression name ("zstd", "gzip", "lz4",
// "none"). The empty string selects zstd.
var ParseCompression = archivetype.ParseCompression

// EntryKind classifies an archive entry.
type EntryKind = archivetype.EntryKind

const (
	// KindOther covers every entry that is neither a directory nor a
	// regular file. Such entries are skipped on export.
	KindOther = archivetype.KindOther

	// KindDirectory is a directory entry.
	KindDirectory = archivetype.KindDirectory

	// KindRegular is a regular file entry.
	KindRegular = archivetype.KindRegular
)

// Entry is a single archive record. Its Payload is only valid until the
// next entry is requested.
type Entry = archivetype.Entry

// EntrySource yields archive entries in stored order. Next returns io.EOF
// once the sequence is exhausted. *Reader implements EntrySource.
type EntrySource interface {
	Next() (Entry, error)
}
