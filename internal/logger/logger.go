package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tablero-backend/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
	// Per-logger levels decide what is written.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// Default is used before the configuration has been read.
func Default() zerolog.Logger {
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()
}

// New builds the application logger for the given environment. Level and
// output format follow the environment: local gets a human console writer.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stdout)
}

func newWithWriter(env string, out io.Writer) zerolog.Logger {
	w := out
	level := zerolog.InfoLevel

	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		w = consoleWriter
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()
}
