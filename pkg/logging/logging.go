// Package logging constructs the zap.Logger used by cmd/crdtd. cmd/crdtbench
// builds its own logger and does not use this package.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Dev returns a development logger: colorized level, no timestamp, no
// stacktrace/caller noise. Panics if the encoder config is invalid, since
// that can only happen from a programming error in this function.
func Dev() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return zap.Must(cfg.Build())
}

// Release returns a production logger: JSON encoding, ISO8601 timestamps,
// stacktraces on Error and above.
func Release() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zap.Must(cfg.Build())
}

// For returns Dev() when env == "dev", Release() otherwise.
func For(env string) *zap.Logger {
	if env == "dev" {
		return Dev()
	}
	return Release()
}
