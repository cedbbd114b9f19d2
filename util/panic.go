package util

import (
	"fmt"
	"runtime/debug"
)

// FormatPanic describes a value recovered from panic along with the current stack trace, for logging
func FormatPanic(recovered interface{}) string {
	if err, ok := recovered.(error); ok {
		return fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	}
	return fmt.Sprintf("%v\n%s", recovered, debug.Stack())
}
