package base

import (
	"strings"

	"golang.org/x/exp/slices"
)

// LogLevel is the severity of a log record, from a fixed closed set
//
// The zero value is not a valid level and is reported as info
type LogLevel int8

// All supported log levels in ascending order of severity
const (
	LevelTrace LogLevel = iota + 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// levelAliases maps level names of other logging frameworks to supported levels
var levelAliases = map[string]LogLevel{
	// java.util.logging
	"FINEST":  LevelTrace,
	"FINER":   LevelTrace,
	"FINE":    LevelDebug,
	"CONFIG":  LevelDebug,
	"WARNING": LevelWarn,
	"SEVERE":  LevelError,
	// syslog
	"NOTICE":    LevelInfo,
	"ERR":       LevelError,
	"CRIT":      LevelFatal,
	"CRITICAL":  LevelFatal,
	"ALERT":     LevelFatal,
	"EMERG":     LevelFatal,
	"EMERGENCY": LevelFatal,
	// logrus and zap
	"PANIC":  LevelFatal,
	"DPANIC": LevelFatal,
}

// ParseLogLevel translates a level name case-insensitively, falling back to info for unknown names
func ParseLogLevel(name string) LogLevel {
	level, _ := LookupLogLevel(name)
	return level
}

// LookupLogLevel translates a level name case-insensitively and tells whether the name is recognized
//
// Unrecognized names are translated to info
func LookupLogLevel(name string) (LogLevel, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if index := slices.Index(levelNames, upper); index != -1 {
		return LogLevel(index + 1), true
	}
	if level, ok := levelAliases[upper]; ok {
		return level, true
	}
	return LevelInfo, false
}

// Valid tells whether the level is one of the supported levels
func (level LogLevel) Valid() bool {
	return level >= LevelTrace && level <= LevelFatal
}

func (level LogLevel) String() string {
	if !level.Valid() {
		return levelNames[LevelInfo-1]
	}
	return levelNames[level-1]
}
