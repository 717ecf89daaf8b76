package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the process-wide logger. Packages that only need the global
	// logger use github.com/rs/zerolog/log, which Setup keeps in sync.
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = build(consoleWriter(os.Stdout), zerolog.InfoLevel)
	log.Logger = Log
}

// Setup configures level and output format. format "json" writes raw
// JSON lines, anything else uses the colored console writer.
func Setup(levelStr, format string) {
	level := parseLevel(levelStr)

	var out io.Writer = consoleWriter(os.Stdout)
	if strings.EqualFold(format, "json") {
		out = os.Stdout
	}

	zerolog.SetGlobalLevel(level)
	Log = build(out, level)
	log.Logger = Log
}

// SetLevel only changes the level, keeping the current writer.
func SetLevel(levelStr string) {
	level := parseLevel(levelStr)
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

func parseLevel(levelStr string) zerolog.Level {
	// gin modes double as log levels in local setups
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "release":
		return zerolog.InfoLevel
	case "test":
		return zerolog.WarnLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		return zerolog.InfoLevel
	}
	return level
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func build(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
