package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(cfg *Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Debug.LogLevel))
	if err != nil || cfg.Debug.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Debug.ConsoleLog {
		cw := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		})
		log.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// componentLogger tags every line with the component that wrote it.
func componentLogger(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
