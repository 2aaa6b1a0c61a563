// Package log wires logrus into the shared Logger interface, with output
// routing (stdout, rotating file, Loki) driven by config.LogConfig.
package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"firestige.xyz/netcore/internal/config"
)

const textPattern = "%time [%level] %caller %func - %msg %field"

// Init builds the process-wide Logger from cfg. Safe to call more than once;
// only the first call takes effect.
func Init(cfg config.LogConfig) error {
	var initErr error
	once.Do(func() {
		initErr = initByConfig(cfg)
	})
	return initErr
}

func initByConfig(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var f logrus.Formatter
	switch strings.ToLower(cfg.Format) {
	case "json":
		f = &logrus.JSONFormatter{}
	case "text":
		f = &formatter{pattern: textPattern, time: "2006-01-02T15:04:05.000Z07:00"}
	default:
		return fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	mw := NewMultiWriter().Add(os.Stdout)

	if cfg.Outputs.File.Enabled {
		if cfg.Outputs.File.Path == "" {
			return fmt.Errorf("file output requires 'path' field")
		}
		mw.AddFileAppender(FileAppenderOpt{
			Filename:   cfg.Outputs.File.Path,
			MaxSize:    cfg.Outputs.File.Rotation.MaxSizeMB,
			MaxBackups: cfg.Outputs.File.Rotation.MaxBackups,
			MaxAge:     cfg.Outputs.File.Rotation.MaxAgeDays,
			Compress:   cfg.Outputs.File.Rotation.Compress,
		})
	}

	if cfg.Outputs.Loki.Enabled {
		if cfg.Outputs.Loki.Endpoint == "" {
			return fmt.Errorf("loki output requires 'endpoint' field")
		}
		lokiWriter, err := NewLokiWriter(LokiConfig{
			Endpoint:      cfg.Outputs.Loki.Endpoint,
			Labels:        cfg.Outputs.Loki.Labels,
			BatchSize:     cfg.Outputs.Loki.BatchSize,
			FlushInterval: cfg.Outputs.Loki.BatchTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create loki writer: %w", err)
		}
		mw.Add(lokiWriter)
	}

	l := logrus.New()
	l.SetFormatter(f)
	l.SetLevel(level)
	l.SetOutput(mw)
	l.SetReportCaller(true)

	logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	return nil
}
