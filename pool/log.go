package pool

import (
	"fmt"
	"log"
	"os"
)

// LogLevel controls which of Debug/Info/Error actually write output.
// Mirrors the teacher's hybrid/logger.go: no structured logging
// library appears anywhere in the retrieved corpus, so this stays on
// the standard library the way the teacher does it.
type LogLevel int

const (
	// LogLevelNone disables all logging.
	LogLevelNone LogLevel = iota
	// LogLevelError enables error logging only.
	LogLevelError
	// LogLevelInfo enables info and error logging.
	LogLevelInfo
	// LogLevelDebug enables all logging.
	LogLevelDebug
)

var currentLogLevel = LogLevelInfo

var (
	debugLogger = log.New(os.Stdout, "[strarena][DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger  = log.New(os.Stdout, "[strarena][INFO] ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(os.Stderr, "[strarena][ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
)

// SetLogLevel adjusts the package-wide log verbosity.
func SetLogLevel(level LogLevel) {
	currentLogLevel = level
}

func logDebug(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelDebug {
		_ = debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func logInfo(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelInfo {
		_ = infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func logError(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelError {
		_ = errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}
