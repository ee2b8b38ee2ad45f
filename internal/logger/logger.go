package logger

import "sync"

// Level names accepted by Get.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	initOnce sync.Once
	shared   *Logger
)

// Get returns the process-wide logger. The level argument only matters on
// the first call; subsequent callers receive the instance as configured then.
func Get(level string) *Logger {
	initOnce.Do(func() {
		shared = newZapLogger(level)
	})
	return shared
}
