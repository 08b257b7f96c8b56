// Logging setup for the gateway daemon.
package main

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/sessiongate/session-gateway/internal/config"
)

// setupLogging configures the global zerolog logger: pretty console output
// when stderr is a terminal, JSON lines otherwise. Called once before config
// is loaded (mon == nil) and again after, so startup errors are formatted too.
// The -debug flag wins over any configured level.
func setupLogging(debug bool, mon *config.MonitoringConfig) {
	level := zerolog.InfoLevel
	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		if parsed, err := zerolog.ParseLevel(lv); err == nil {
			level = parsed
		}
	}
	if mon != nil && mon.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(mon.LogLevel); err == nil {
			level = parsed
		}
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var sink io.Writer = os.Stderr
	toFile := false
	switch {
	case mon == nil, mon.LogOutput == "", mon.LogOutput == "stderr":
	case mon.LogOutput == "stdout":
		sink = os.Stdout
	default:
		if f, err := os.OpenFile(mon.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
			sink = f
			toFile = true
		} else {
			log.Warn().Err(err).Str("path", mon.LogOutput).Msg("log file unavailable, keeping stderr")
		}
	}

	console := !toFile && term.IsTerminal(int(os.Stderr.Fd()))
	if mon != nil {
		switch mon.LogFormat {
		case "json":
			console = false
		case "console":
			console = true
		}
	}

	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: sink, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(sink).With().Timestamp().Logger()
	}

	// net/http logs server-side errors through the standard library logger;
	// route those into the same sink.
	stdlog.SetOutput(log.Logger)
}
