package report

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSink forwards events to a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger. A nil logger is replaced with zap.NewNop.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Emit implements Sink.
func (s *ZapSink) Emit(e Event) {
	fields := []zap.Field{zap.String("kind", string(e.Kind))}
	if e.Plugin != "" {
		fields = append(fields, zap.String("plugin", e.Plugin))
	}
	if e.Path != "" {
		fields = append(fields, zap.String("path", e.Path))
	}
	if e.DryRun {
		fields = append(fields, zap.Bool("dry_run", true))
	}
	if ce := s.logger.Check(zapLevel(e.Level), e.Message); ce != nil {
		if !e.Time.IsZero() {
			ce.Time = e.Time
		}
		ce.Write(fields...)
	}
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
