// Package logging holds the logger shared by every package.
// It has little else since it is imported everywhere.
package logging

import (
	"io"
	"os"

	"gopkg.in/op/go-logging.v1"
)

// Log is the process-wide logger.
var Log = logging.MustGetLogger("parallelphpcs")

var format = logging.MustStringFormatter(`%{time:15:04:05.000} %{level:.4s} %{message}`)

// levels maps CLI verbosity (0-4) to a logging level.
var levels = []logging.Level{
	logging.ERROR,
	logging.WARNING,
	logging.NOTICE,
	logging.INFO,
	logging.DEBUG,
}

// Init installs a stderr backend at the level for the given verbosity.
func Init(verbosity int) {
	InitWriter(os.Stderr, verbosity)
}

// InitWriter is Init with an arbitrary destination.
func InitWriter(w io.Writer, verbosity int) {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), format)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(Level(verbosity), "")
	logging.SetBackend(leveled)
}

// Level returns the logging level for a verbosity, clamping out-of-range values.
func Level(verbosity int) logging.Level {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity >= len(levels) {
		verbosity = len(levels) - 1
	}
	return levels[verbosity]
}
