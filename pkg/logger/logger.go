package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

// Options configures a Logger. Verbose forces debug level.
type Options struct {
	Level   string
	Format  string
	Verbose bool
	Output  io.Writer
}

func New(opts Options) *Logger {
	log := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	if opts.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	return &Logger{Logger: log}
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *Logger {
	return New(Options{Output: io.Discard, Level: "panic"})
}
