// Package archivetype defines shared types used across the corpus package and
// its internal packages. This avoids circular imports between corpus and the
// internal reader, codec and path packages.
package archivetype

import "fmt"

// Compression identifies the compression wrapped around the tar container.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionGzip
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Extension returns the file name suffix for a corpus archive using c,
// including the tar component (".tar.zst", ".tar", ...).
func (c Compression) Extension() string {
	switch c {
	case CompressionZstd:
		return ".tar.zst"
	case CompressionGzip:
		return ".tar.gz"
	case CompressionLZ4:
		return ".tar.lz4"
	default:
		return ".tar"
	}
}

// ParseCompression parses a compression name as produced by String.
// The empty string selects zstd.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "zstd", "zst":
		return CompressionZstd, nil
	case "none", "tar":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}
