package corpus

import "go.uber.org/zap"

// builderConfig holds configuration for CreateArchive.
type builderConfig struct {
	compression Compression
	logger      *zap.Logger
	progress    ProgressFunc
}

// BuilderOption configures CreateArchive.
type BuilderOption func(*builderConfig)

// BuilderWithCompression sets the compression wrapped around the tar
// stream. The default is CompressionZstd.
func BuilderWithCompression(c Compression) BuilderOption {
	return func(cfg *builderConfig) {
		cfg.compression = c
	}
}

// BuilderWithLogger sets the logger. A nil logger disables logging.
func BuilderWithLogger(l *zap.Logger) BuilderOption {
	return func(cfg *builderConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		cfg.logger = l
	}
}

// BuilderWithProgress sets a callback invoked after every appended entry.
func BuilderWithProgress(fn ProgressFunc) BuilderOption {
	return func(cfg *builderConfig) {
		cfg.progress = fn
	}
}
