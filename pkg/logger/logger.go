package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger

	debugEnabled atomic.Bool
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)

	debugEnabled.Store(os.Getenv("ENVIRONMENT") == "development")
}

// SetDebug toggles Debug output. main enables it in development.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetOutput redirects every level to w.
func SetOutput(w io.Writer) {
	InfoLogger.SetOutput(w)
	WarnLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
	DebugLogger.SetOutput(w)
}

func Info(format string, v ...interface{}) {
	InfoLogger.Output(2, sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Output(2, sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Output(2, sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if debugEnabled.Load() {
		DebugLogger.Output(2, sprintf(format, v...))
	}
}

func Fatal(format string, v ...interface{}) {
	ErrorLogger.Output(2, sprintf(format, v...))
	os.Exit(1)
}

func sprintf(format string, v ...interface{}) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}
