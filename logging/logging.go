/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
	SourceDB         = "db"
	SourceEngine     = "engine"
)

// LevelEnvVar selects the minimum level. Condition traces are logged at debug.
const LevelEnvVar = "LOG_LEVEL"

var (
	initOnce   sync.Once
	baseLogger *log.Logger
)

// levelFromEnv falls back to info when the value is unset or unknown.
func levelFromEnv(value string) log.Level {
	value = strings.TrimSpace(value)
	if value == "" {
		return log.InfoLevel
	}

	level, err := log.ParseLevel(strings.ToLower(value))
	if err != nil {
		return log.InfoLevel
	}

	return level
}

// Init configures the base logger and stdlib log output.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(os.Stdout, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           levelFromEnv(os.Getenv(LevelEnvVar)),
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdLogger := baseLogger.With("source", SourceApp).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())
	})
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	Init()
	return baseLogger.With("source", source)
}

// StdLogger returns a stdlib logger for net/http, which only takes *log.Logger.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return baseLogger.With("source", source).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}
