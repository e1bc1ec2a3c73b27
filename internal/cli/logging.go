// logging.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package cli

import (
	"fmt"
	"io"
	stdlog "log"
	"log/syslog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

const (
	logFormatJSON     = "json"
	logFormatSyslog   = "syslog"
	logFormatJournald = "journald"
	logFormatLogfmt   = "logfmt"
	logFormatConsole  = "console"
)

// initializeLogger configure global logger. Log is always written to stderr
// (or system log) so stdout stay clean for commands output.
func initializeLogger(level, format string) error {
	zerolog.ErrorMarshalFunc = aerr.ErrorMarshalFunc //nolint:reassign

	writer, err := newLogWriter(checkFormat(format))
	if err != nil {
		return err
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
		defer log.Error().Msgf("logger: unknown log level %q; using debug", level)
	}

	zerolog.SetGlobalLevel(lvl)

	lctx := log.Output(writer).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		lctx = lctx.Caller()
	}

	log.Logger = lctx.Logger()

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)

	return nil
}

func newLogWriter(format string) (io.Writer, error) {
	switch format {
	case logFormatJSON:
		return os.Stderr, nil

	case logFormatSyslog:
		syslogwriter, err := syslog.New(syslog.LOG_USER, "gorelay")
		if err != nil {
			return nil, fmt.Errorf("init syslog error: %w", err)
		}

		return zerolog.SyslogLevelWriter(syslogwriter), nil

	case logFormatJournald:
		return journald.NewJournalDWriter(), nil

	case logFormatLogfmt:
		return newLogfmtWriter(os.Stderr), nil

	default:
		return newConsoleWriter(os.Stderr, outputIsConsole()), nil
	}
}

// checkFormat check log format name. If is unknown or empty - set default according to output is on console or not.
func checkFormat(format string) string {
	switch format {
	case logFormatJSON, logFormatSyslog, logFormatJournald, logFormatLogfmt, logFormatConsole:
		return format
	}

	if format != "" {
		log.Error().Msgf("logger: unknown log format %q; using default", format)
	}

	if outputIsConsole() {
		return logFormatConsole
	}

	return logFormatLogfmt
}

func newConsoleWriter(out io.Writer, console bool) zerolog.ConsoleWriter {
	// log full datetime when log is written to file; skip date on console.
	tformat := time.RFC3339
	if console {
		tformat = time.TimeOnly
	}

	return zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:        out,
		NoColor:    !console,
		TimeFormat: tformat,
	}
}

func outputIsConsole() bool {
	fileInfo, _ := os.Stderr.Stat()

	return fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0
}

// newLogfmtWriter configure logger to proper logfmt format (all fields are in form key=val).
func newLogfmtWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:                 out,
		NoColor:             true,
		TimeFormat:          time.RFC3339,
		FormatLevel:         logfmtField("level", "", false),
		FormatTimestamp:     logfmtField("ts", "", false),
		FormatMessage:       logfmtField("msg", "<nil>", true),
		FormatCaller:        logfmtField("caller", "UNKNOWN", false),
		FormatErrFieldValue: logfmtValue,
	}
}

func logfmtField(key, empty string, quote bool) zerolog.Formatter {
	return func(i any) string {
		if i == nil {
			if empty == "" {
				return ""
			}

			return key + "=" + empty
		}

		val := fmt.Sprintf("%s", i)
		if quote || strings.ContainsAny(val, " \"") {
			val = strconv.Quote(val)
		}

		return key + "=" + val
	}
}

func logfmtValue(i any) string {
	if i == nil {
		return "<nil>"
	}

	return strconv.Quote(fmt.Sprintf("%s", i))
}
