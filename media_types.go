package corpus

// Media types reported in the descriptor returned by Builder.Close.
const (
	MediaTypeArchiveTar     = "application/vnd.meigma.corpus.archive.v1.tar"
	MediaTypeArchiveTarZstd = "application/vnd.meigma.corpus.archive.v1.tar+zstd"
	MediaTypeArchiveTarGzip = "application/vnd.meigma.corpus.archive.v1.tar+gzip"
	MediaTypeArchiveTarLZ4  = "application/vnd.meigma.corpus.archive.v1.tar+lz4"
)

// MediaType returns the archive media type for a compression.
func MediaType(c Compression) string {
	switch c {
	case CompressionZstd:
		return MediaTypeArchiveTarZstd
	case CompressionGzip:
		return MediaTypeArchiveTarGzip
	case CompressionLZ4:
		return MediaTypeArchiveTarLZ4
	default:
		return MediaTypeArchiveTar
	}
}
