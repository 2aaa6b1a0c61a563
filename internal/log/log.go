package log

import (
	"sync"
)

// Logger is the structured logging facade the rest of netcore depends on.
// The replay command logs rejected fragments and failed reassemblies at Warn
// through this interface; the reassembly and PMTU caches themselves do not
// log, and timeouts and stale-entry evictions are only counted in metrics.
// Error is reserved for conditions the caller cannot recover from locally.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	logger Logger
)

// GetLogger returns the process-wide Logger. Init must be called first.
func GetLogger() Logger {
	return logger
}
