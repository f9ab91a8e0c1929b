package daemon

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/karo-systems/karo-logger/internal/message"
)

// selfServiceName is the vendor's fixed service_name for the daemon's own
// log records, so its own diagnostics ride the same file and fleet as
// every other client (spec supplemented feature 3: self-logger target
// defaults to "self", service name is the vendor's fixed name).
const selfServiceName = "karo.logger"

// selfTarget is the default target for a self-log record.
const selfTarget = "self"

// SelfLogger lets the daemon emit its own structured records through the
// same dispatcher channel every registered client uses. Unlike a session,
// it has no connection to read from: it only ever writes LogEvents.
//
// Calls are serialized by mu so that self-log records keep program order
// even when Log is called concurrently from multiple goroutines (spec §9
// "self-logger ordering": at most one self-log send in flight at a time).
type SelfLogger struct {
	mu    sync.Mutex
	logCh chan<- LogEvent
	pid   int
	level atomic.Int32
}

// NewSelfLogger returns a logger that forwards onto logCh as the daemon's
// own pid and fixed service name, gated at level (the daemon's
// --log-level flag, spec §6).
func NewSelfLogger(logCh chan<- LogEvent, level message.Level) *SelfLogger {
	s := &SelfLogger{logCh: logCh, pid: os.Getpid()}
	s.level.Store(int32(level))
	return s
}

// Log renders and forwards one self-log record. Records below the
// configured level are dropped, same as the client sink (spec §6 "each
// binary's --log-level flag gates the records it emits").
func (s *SelfLogger) Log(level message.Level, target, text string) {
	if !message.Enabled(message.Level(s.level.Load()), level) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logCh <- LogEvent{
		Pid:         s.pid,
		ServiceName: selfServiceName,
		Record:      message.New(selfServiceName, s.pid, level, target, text),
	}
}

func (s *SelfLogger) Infof(format string, args ...any) {
	s.Log(message.LevelInfo, selfTarget, fmt.Sprintf(format, args...))
}

func (s *SelfLogger) Warnf(format string, args ...any) {
	s.Log(message.LevelWarn, selfTarget, fmt.Sprintf(format, args...))
}
