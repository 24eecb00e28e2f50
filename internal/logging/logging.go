// Package logging builds the logrus logger used for diagnostics.
//
// Operator-facing progress lines are printed by the CLI with fmt; this
// logger only carries debug output, run ids and cleanup failures.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to out. Debug level is enabled when verbose
// is set or DEBUG=1 is present in the environment.
func New(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	formatter.TimestampFormat = "15:04:05.000"
	log.SetFormatter(formatter)

	log.SetLevel(logrus.InfoLevel)
	if verbose || os.Getenv("DEBUG") == "1" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Discard returns a logger that drops everything. Used where no logger was
// supplied.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}
