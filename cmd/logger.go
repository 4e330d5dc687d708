package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	sfmt "github.com/samber/slog-formatter"
)

// NewLogger builds the process logger and installs it as the default
func NewLogger(level string, json bool) *slog.Logger {
	logger := slog.New(newHandler(os.Stderr, parseLevel(level), json))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(input string) (level slog.Level) {
	if err := level.UnmarshalText([]byte(input)); err != nil {
		level = slog.LevelInfo
	}
	return level
}

func newHandler(output io.Writer, level slog.Level, json bool) slog.Handler {
	if json {
		return slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	}
	colorize := false
	if f, ok := output.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd())
	}
	return sfmt.NewFormatterHandler(
		sfmt.ErrorFormatter("error"),
	)(
		tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: "Jan 02 15:04:05.000",
			NoColor:    !colorize,
		}),
	)
}
