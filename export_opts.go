package corpus

import "go.uber.org/zap"

// exportConfig holds configuration for Export.
type exportConfig struct {
	logger     *zap.Logger
	progress   ProgressFunc
	readerOpts []ReaderOption
}

// ExportOption configures Export.
type ExportOption func(*exportConfig)

// ExportWithLogger sets the logger. Export logs at Info on start and finish
// and at Debug for every entry. A nil logger disables logging.
func ExportWithLogger(l *zap.Logger) ExportOption {
	return func(cfg *exportConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		cfg.logger = l
	}
}

// ExportWithProgress sets a callback invoked after every entry.
func ExportWithProgress(fn ProgressFunc) ExportOption {
	return func(cfg *exportConfig) {
		cfg.progress = fn
	}
}

// ExportWithCompression forces the archive compression instead of
// detecting it.
func ExportWithCompression(c Compression) ExportOption {
	return func(cfg *exportConfig) {
		cfg.readerOpts = append(cfg.readerOpts, ReaderWithCompression(c))
	}
}

// ExportWithMaxDecoderMemory bounds zstd decoder window memory.
func ExportWithMaxDecoderMemory(n uint64) ExportOption {
	return func(cfg *exportConfig) {
		cfg.readerOpts = append(cfg.readerOpts, ReaderWithMaxDecoderMemory(n))
	}
}
