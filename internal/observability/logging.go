package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-agency-backoffice/internal/sysutil"
)

// SetupLogging sets the global zerolog level and replaces the global logger.
// Pretty output is a human console format for development; otherwise logs
// are JSON lines. A nil w writes to stderr.
func SetupLogging(w io.Writer, level string, pretty bool, service string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	sysutil.SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).With().Timestamp().Str("service", service).Logger()
	log.Logger = logger
	return logger
}
