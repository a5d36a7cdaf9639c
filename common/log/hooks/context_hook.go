package hooks

import (
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

const modulePath = "twitter/rpctest/"

type contextHook struct {
}

// NewContextHook returns a hook adding the "file:line" of the logging call to every entry.
func NewContextHook() contextHook {
	return contextHook{}
}

func (hook contextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook contextHook) Fire(entry *logrus.Entry) error {
	if line, ok := caller(string(debug.Stack())); ok {
		entry.Data["file:line"] = line
	}
	return nil
}

// caller scans a debug.Stack() trace for the first file:line outside of this
// hook and logrus, trimmed to be relative to the module root.
func caller(stack string) (string, bool) {
	foundLoggerBlock := false
	for _, line := range strings.Split(stack, "\n") {
		// File lines are indented with a tab, function lines aren't.
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		if strings.Contains(line, "context_hook.go:") {
			foundLoggerBlock = true
			continue
		}
		if !foundLoggerBlock || strings.Contains(line, "sirupsen/logrus") {
			continue
		}
		loc := strings.TrimSpace(line)
		if idx := strings.Index(loc, modulePath); idx >= 0 {
			loc = loc[idx+len(modulePath):]
		}
		if idx := strings.LastIndex(loc, " +0x"); idx >= 0 {
			loc = loc[:idx]
		}
		return loc, true
	}
	return "", false
}
