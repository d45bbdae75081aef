package log

import (
	"io"
	"os"

	"fxarb/internal/config"

	"github.com/rs/zerolog"
)

type Logger = zerolog.Logger

// NewLogger builds the process logger. Output goes to stderr so that stdout
// stays free for tooling that pipes reports.
func NewLogger(cfg config.Config) Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.Config, out io.Writer) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if cfg.Logging.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(out).With().Timestamp().Str("service", "fxarb").Logger()
}
