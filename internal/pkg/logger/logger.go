package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development environments get console output,
// everything else gets JSON lines on stdout.
func New(env, level string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "account-api").Logger()
	return &l
}

// Nop returns a disabled logger, used where no logger was injected.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
