// Package logging provides the engine's structured logger, trimmed from the
// retrieved corpus's internal/logging package (fyrsmithlabs/contextd) down
// to what a synchronous, non-request-scoped pipeline needs: no OTEL bridge,
// no per-request context fields, just a configured *zap.Logger for the
// facade to log its call boundaries with (spec §2's "Observability"
// expansion).
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger's verbosity and encoding, mirroring the two
// knobs the corpus's logging.Config exposes that matter for a library
// rather than a long-running service.
type Config struct {
	Level  zapcore.Level
	Format string // "json" or "console"
}

// New builds a *zap.Logger from cfg. A zero Config yields an info-level
// JSON logger.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), cfg.Level)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything, used as the facade's
// default when a caller does not supply one — the pipeline never requires
// logging to function, per spec §5's pure-function guarantee.
func Nop() *zap.Logger {
	return zap.NewNop()
}
