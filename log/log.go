package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("GRAPH_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled with
// GRAPH_DEBUG environment variable.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger which discards all entries.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
