package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName tags every log entry.
const ServiceName = "live-question-service"

// Init configures the global zerolog logger. Unknown levels fall back to info.
func Init(level string, pretty bool) {
	InitWithWriter(os.Stdout, level, pretty)
}

func InitWithWriter(w io.Writer, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", ServiceName).Logger()
}

// ReportFailure writes err as a fatal entry tagged with the service name. It
// does not depend on Init having run, so config errors are reported too.
func ReportFailure(w io.Writer, err error) {
	l := zerolog.New(w).With().Timestamp().Str("service", ServiceName).Logger()
	l.WithLevel(zerolog.FatalLevel).Err(err).Msg("command failed")
}
