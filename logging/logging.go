package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New builds the process logger. Records go to stdout as JSON and, when
// logFile is set, are also appended to that file. A file that cannot be
// opened is reported on the returned logger and otherwise ignored.
func New(level, logFile string) (*slog.Logger, io.Closer) {
	var lvl slog.Level
	levelErr := lvl.UnmarshalText([]byte(level))

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	var fileErr error
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fileErr = err
		} else {
			out = io.MultiWriter(os.Stdout, bestEffortWriter{f})
			closer = f
		}
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	if levelErr != nil {
		logger.Warn("invalid log level, using info", "level", level, "error", levelErr)
	}
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stdout only", "path", logFile, "error", fileErr)
	}
	return logger, closer
}

// bestEffortWriter swallows write errors so a full disk never fails stdout
// logging through the MultiWriter.
type bestEffortWriter struct {
	w io.Writer
}

func (b bestEffortWriter) Write(p []byte) (int, error) {
	if _, err := b.w.Write(p); err != nil {
		fmt.Fprintf(os.Stderr, "log file write: %v\n", err)
	}
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
