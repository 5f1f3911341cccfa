package corpus

// readerConfig holds configuration for opening a Reader.
type readerConfig struct {
	compression      Compression
	compressionSet   bool
	maxDecoderMemory uint64
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerConfig)

// ReaderWithCompression forces the given compression instead of detecting
// it from the archive's leading bytes. Use CompressionNone to read a plain
// tar stream.
func ReaderWithCompression(c Compression) ReaderOption {
	return func(cfg *readerConfig) {
		cfg.compression = c
		cfg.compressionSet = true
	}
}

// ReaderWithMaxDecoderMemory bounds the memory the zstd decoder may
// allocate for its window. Zero applies no limit.
func ReaderWithMaxDecoderMemory(n uint64) ReaderOption {
	return func(cfg *readerConfig) {
		cfg.maxDecoderMemory = n
	}
}
