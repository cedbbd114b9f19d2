// Package logrushook feeds logrus entries to a shipper
package logrushook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/relex/log-shipper/base"
	"github.com/relex/log-shipper/defs"
	"github.com/sirupsen/logrus"
)

// Hook is a logrus hook which converts entries to log records
//
// The source of a record is taken from the "component" field if present, or from the calling function if the logger
// reports callers. Remaining fields are converted to strings.
type Hook struct {
	appender base.RecordAppender
	levels   []logrus.Level
}

// NewHook creates a Hook for entries at minLevel or more severe
func NewHook(appender base.RecordAppender, minLevel logrus.Level) *Hook {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= minLevel {
			levels = append(levels, level)
		}
	}
	return &Hook{
		appender: appender,
		levels:   levels,
	}
}

// Levels returns the levels handled by this hook
func (hook *Hook) Levels() []logrus.Level {
	return hook.levels
}

// Fire converts and appends an entry. It never fails.
func (hook *Hook) Fire(entry *logrus.Entry) error {
	record := base.LogRecord{
		Level:     convertLevel(entry.Level),
		Message:   entry.Message,
		Timestamp: entry.Time,
		Source:    "",
		Details:   "",
		Fields:    nil,
	}
	if entry.Caller != nil {
		function := entry.Caller.Function
		if index := strings.LastIndexByte(function, '/'); index != -1 {
			function = function[index+1:]
		}
		record.Source = function
		record.Details = fmt.Sprintf("%s %s:%d", function, filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		record.Fields = make(map[string]string, len(entry.Data))
		for key, value := range entry.Data {
			str := stringify(value)
			if key == defs.LabelComponent {
				record.Source = str
				continue
			}
			record.Fields[key] = str
		}
	}
	hook.appender.Append(record)
	return nil
}

func convertLevel(level logrus.Level) base.LogLevel {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return base.LevelFatal
	case logrus.ErrorLevel:
		return base.LevelError
	case logrus.WarnLevel:
		return base.LevelWarn
	case logrus.InfoLevel:
		return base.LevelInfo
	case logrus.DebugLevel:
		return base.LevelDebug
	case logrus.TraceLevel:
		return base.LevelTrace
	default:
		return base.LevelInfo
	}
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
