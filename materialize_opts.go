package corpus

import "go.uber.org/zap"

// MaterializeOption configures a Materializer.
type MaterializeOption func(*Materializer)

// MaterializeWithLogger sets the logger used for per-entry debug output.
// A nil logger disables logging.
func MaterializeWithLogger(l *zap.Logger) MaterializeOption {
	return func(m *Materializer) {
		if l == nil {
			l = zap.NewNop()
		}
		m.logger = l
	}
}

// MaterializeWithProgress sets a callback invoked after every entry.
func MaterializeWithProgress(fn ProgressFunc) MaterializeOption {
	return func(m *Materializer) {
		m.progress = fn
	}
}
