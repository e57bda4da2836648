package logging

import (
	"folio/internal/domain/config"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"os"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to stderr and, when cfg.File is set, to a
// rotating file. The closer releases the file.
func New(cfg config.LogConfig) (*log.Logger, io.Closer) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(term io.Writer, cfg config.LogConfig) (*log.Logger, io.Closer) {
	writers := []io.Writer{term}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	return log.New(io.MultiWriter(writers...), "", log.LstdFlags), closer
}
