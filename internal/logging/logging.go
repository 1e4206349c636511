// Package logging configures the global zerolog logger.
package logging

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps the -v count to a log level
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.InfoLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup points the global logger at w with the level for verbosity.
// Info lines are printed bare ("U2723QX: Switch to DP1"); other levels carry
// a level prefix.
func Setup(w io.Writer, verbosity int) {
	level := LevelFor(verbosity)
	zerolog.SetGlobalLevel(level)

	out := zerolog.ConsoleWriter{
		Out:         w,
		NoColor:     true,
		PartsOrder:  []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: formatLevel,
	}
	log.Logger = zerolog.New(out).Level(level)
}

func formatLevel(i interface{}) string {
	level, _ := i.(string)
	switch level {
	case zerolog.LevelInfoValue, "":
		return ""
	case zerolog.LevelWarnValue:
		return "warning:"
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue:
		return "error:"
	}
	return level + ":"
}
