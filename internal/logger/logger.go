package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Log is the application-wide structured logger. It stays a no-op until Init
// runs, so library code may log unconditionally.
var Log = zerolog.Nop()

// Init configures the global logger. Development gets a human-readable
// console writer, everything else JSON.
func Init(env, level string) {
	var w io.Writer = os.Stdout
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	Log = zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	zlog.Logger = Log
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
