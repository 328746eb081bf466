// File: internal/observability/reporter.go
package observability

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Reporter receives human-readable progress messages from a run. Front-ends
// implement it to surface status lines; the core never depends on how they are shown.
type Reporter interface {
	Report(msg string)
}

// LogReporter writes every message to a zap logger at info level.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a reporter backed by the given logger.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = GetLogger()
	}
	return &LogReporter{logger: logger.Named("status")}
}

// Report implements Reporter.
func (r *LogReporter) Report(msg string) {
	r.logger.Info(msg)
}

// FuncReporter adapts a plain callback. A panicking callback is logged and
// swallowed so a broken front-end cannot take a run down with it.
type FuncReporter struct {
	fn     func(string)
	logger *zap.Logger
}

// NewFuncReporter wraps fn. A nil fn yields a reporter that drops messages.
func NewFuncReporter(fn func(string), logger *zap.Logger) *FuncReporter {
	if logger == nil {
		logger = GetLogger()
	}
	return &FuncReporter{fn: fn, logger: logger}
}

// Report implements Reporter.
func (r *FuncReporter) Report(msg string) {
	if r.fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Status callback panicked.", zap.String("panic", fmt.Sprint(rec)))
		}
	}()
	r.fn(msg)
}

// MultiReporter fans a message out to several reporters, in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(msg string) {
	for _, r := range m {
		if r != nil {
			r.Report(msg)
		}
	}
}

// RecordingReporter keeps every message in memory. Useful for tests and for
// front-ends that render the log after the run.
type RecordingReporter struct {
	mu       sync.Mutex
	messages []string
}

// Report implements Reporter.
func (r *RecordingReporter) Report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the recorded messages.
func (r *RecordingReporter) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
