package debug

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

// NewLogger returns a human readable, coloured logger on stdout.
func NewLogger() zerolog.Logger {
	return NewLoggerWithLevel(zerolog.DebugLevel)
}

func NewLoggerWithLevel(level zerolog.Level) zerolog.Logger {
	return newConsoleLogger(colorable.NewColorableStdout(), level)
}

// NewStderrLogger keeps stdout free for command output.
func NewStderrLogger(level zerolog.Level) zerolog.Logger {
	return newConsoleLogger(colorable.NewColorableStderr(), level)
}

func newConsoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	return zerolog.New(writer).With().Timestamp().Logger().Level(level)
}
