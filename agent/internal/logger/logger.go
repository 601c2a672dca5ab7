package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var L = zerolog.Nop()

// Init points the agent logger at stdout, or at path when one is configured.
// The returned func closes the log file, if any.
func Init(path, level string) (func() error, error) {
	var w io.Writer = os.Stdout
	closer := func() error { return nil }
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = file
		closer = file.Close
	}
	L = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: path != ""})
	SetLevel(level)
	return closer, nil
}

// SetOutput is used by tests and by the bench commands that print to a terminal.
func SetOutput(w io.Writer) {
	L = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
}

// SetLevel changes the level at runtime (config reload). The level is
// process-wide and stored atomically, so it is safe while other goroutines log.
func SetLevel(level string) { zerolog.SetGlobalLevel(ParseLevel(level)) }

func ParseLevel(level string) zerolog.Level {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// With returns a child logger carrying a structured field.
func With(key string, value any) zerolog.Logger {
	return L.With().Interface(key, value).Logger()
}

func Info(v ...interface{})             { L.Info().Msg(fmt.Sprint(v...)) }
func Warn(v ...interface{})             { L.Warn().Msg(fmt.Sprint(v...)) }
func Error(v ...interface{})            { L.Error().Msg(fmt.Sprint(v...)) }
func Debugf(f string, v ...interface{}) { L.Debug().Msgf(f, v...) }
func Infof(f string, v ...interface{})  { L.Info().Msgf(f, v...) }
func Warnf(f string, v ...interface{})  { L.Warn().Msgf(f, v...) }
func Errorf(f string, v ...interface{}) { L.Error().Msgf(f, v...) }
