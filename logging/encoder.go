package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeEncoder formats entry times with the configured prefix and layout.
func TimeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// NewEncoder returns a json or console encoder for config.
func NewEncoder(config Config) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     TimeEncoder(config),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// newCores builds one core per level at or above the configured minimum, each
// writing to its own level file so errors can be tailed separately.
func newCores(config Config) ([]zapcore.Core, []*levelWriter) {
	encoder := NewEncoder(config)
	var (
		cores   []zapcore.Core
		writers []*levelWriter
	)

	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), zap.NewAtomicLevelAt(config.ZapLevel())))
	}
	if !config.LogInFile {
		return cores, nil
	}

	for level := config.ZapLevel(); level <= zapcore.FatalLevel; level++ {
		lvl := level
		w := newLevelWriter(config, lvl.String())
		writers = append(writers, w)
		cores = append(cores, zapcore.NewCore(encoder, w, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l == lvl
		})))
	}
	return cores, writers
}
