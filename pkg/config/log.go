package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// LogConfig configures diagnostic logging on stderr
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json, or empty for auto
}

// ParseLevel maps the configured level name to a zerolog level.
// Unknown names fall back to warn.
func (c *LogConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(c.Level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

// ConfigureZerolog sets the global level and points the global logger at stderr
func (c *LogConfig) ConfigureZerolog() {
	zerolog.SetGlobalLevel(c.ParseLevel())
	log.Logger = zerolog.New(c.writer(os.Stderr)).With().Timestamp().Logger()
}

func (c *LogConfig) writer(out *os.File) io.Writer {
	switch strings.ToLower(c.Format) {
	case "json":
		return out
	case "console":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	if term.IsTerminal(int(out.Fd())) {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}
