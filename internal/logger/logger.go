package logger

import (
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	blue   = "\x1b[34m"
	yellow = "\x1b[33m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	reset  = "\x1b[0m"
)

var levels = map[string]int{
	"DEBUG":   0,
	"INFO":    1,
	"WARNING": 2,
	"ERROR":   3,
}

// minLevel is read once from LOG_LEVEL at startup. DEBUG output is off by default.
var minLevel = func() int {
	if lvl, ok := levels[strings.ToUpper(os.Getenv("LOG_LEVEL"))]; ok {
		return lvl
	}
	return levels["INFO"]
}()

func prefix(level string) string {
	var color string
	switch strings.ToUpper(level) {
	case "DEBUG":
		color = blue
	case "INFO":
		color = green
	case "WARNING", "WARN":
		color = yellow
	case "ERROR", "ERR":
		color = red
	default:
		color = reset
	}
	return fmt.Sprintf("[%s%s%s] - %s - ", color, strings.ToUpper(level), reset, time.Now().Format("2006-01-02T15:04:05"))
}

func logf(level, format string, a ...interface{}) {
	if levels[level] < minLevel {
		return
	}
	msg := fmt.Sprintf(format, a...)
	fmt.Printf("%s%s\n", prefix(level), msg)
}

func Debugf(format string, a ...interface{}) {
	logf("DEBUG", format, a...)
}

func Infof(format string, a ...interface{}) {
	logf("INFO", format, a...)
}

func Warnf(format string, a ...interface{}) {
	logf("WARNING", format, a...)
}

func Errorf(format string, a ...interface{}) {
	logf("ERROR", format, a...)
}

func Fatalf(format string, a ...interface{}) {
	logf("ERROR", format, a...)
	os.Exit(1)
}
