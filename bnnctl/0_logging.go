package bnnctl

import (
	"fmt"
	"log"
	"os"
)

var (
	WARNINGLogger *log.Logger
	INFOLogger    *log.Logger
	ERRORLogger   *log.Logger
	DEBUGLogger   *log.Logger
)

var (
	LOG_LEVEL     = 20 // default log level
	DEBUG_LEVEL   = 10
	INFO_LEVEL    = 20
	WARNING_LEVEL = 30
	ERROR_LEVEL   = 40
)

func init() {
	flag := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lmsgprefix | log.Lshortfile

	INFOLogger = log.New(os.Stderr, "INFO ", flag)
	WARNINGLogger = log.New(os.Stderr, "WARNING ", flag)
	ERRORLogger = log.New(os.Stderr, "ERROR ", flag)
	DEBUGLogger = log.New(os.Stderr, "DEBUG ", flag)

	if logLevelStr := os.Getenv("LOG_LEVEL"); logLevelStr != "" {
		if !SetLogLevel(logLevelStr) {
			WARNINGLogger.Printf("Unrecognized LOG_LEVEL env variable value: %s. Keeping LOG_LEVEL at level INFO (20)", logLevelStr)
		}
	}
}

// SetLogLevel switches the package log level by name and reports whether
// the name was recognized.
func SetLogLevel(name string) bool {
	switch name {
	case "DEBUG":
		LOG_LEVEL = DEBUG_LEVEL
	case "INFO":
		LOG_LEVEL = INFO_LEVEL
	case "WARNING":
		LOG_LEVEL = WARNING_LEVEL
	case "ERROR":
		LOG_LEVEL = ERROR_LEVEL
	default:
		return false
	}
	return true
}

// Output depth 2 keeps Lshortfile pointing at the caller.

func debugf(format string, args ...any) {
	if LOG_LEVEL <= DEBUG_LEVEL {
		DEBUGLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func infof(format string, args ...any) {
	if LOG_LEVEL <= INFO_LEVEL {
		INFOLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func warnf(format string, args ...any) {
	if LOG_LEVEL <= WARNING_LEVEL {
		WARNINGLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func errorf(format string, args ...any) {
	if LOG_LEVEL <= ERROR_LEVEL {
		ERRORLogger.Output(2, fmt.Sprintf(format, args...))
	}
}
