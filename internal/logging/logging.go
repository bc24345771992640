// Package logging configures the process logger. Output goes to a file so
// the terminal UI is never overwritten by log lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/llehouerou/streamer/internal/config"
)

const defaultLogFile = "streamer/streamer.log"

// Setup builds a logger from cfg. The returned closer releases the log file.
// A nil fs means the OS filesystem.
func Setup(cfg config.LogConfig, fs afero.Fs) (*logrus.Logger, io.Closer, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	path := cfg.File
	if path == "" {
		p, err := xdg.StateFile(defaultLogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve log path: %w", err)
		}
		path = p
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	log := New(f, cfg)
	return log, f, nil
}

// New returns a logger writing to w with the level and formatter from cfg.
// An unknown level falls back to info.
func New(w io.Writer, cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
