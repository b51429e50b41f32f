package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to stdout. Unknown levels fall back to
// info; format is "json" or anything else for text.
func NewLogger(level, format string) *logrus.Logger {
	lg := logrus.New()
	lg.Out = os.Stdout

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	lg.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		lg.Formatter = &logrus.JSONFormatter{}
	} else {
		lg.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return lg
}

// DiscardLogger drops everything. Library types fall back to it when the caller
// does not inject a logger.
func DiscardLogger() *logrus.Logger {
	lg := logrus.New()
	lg.Out = io.Discard
	return lg
}
