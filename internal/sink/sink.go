// Package sink implements the client-side log sink (spec §4.8, C9): a
// capture hook that renders log calls into records, a bounded outbound
// queue, a single sender goroutine with reconnect/backoff, and a stdout
// fallback that never blocks the caller's hot path.
//
// Grounded on the teacher's own reconnecting WebSocket client
// (internal/ws/client.go, internal/ws/backoff.go): a single background
// goroutine owns the connection and reconnects with backoff on failure,
// while callers only ever enqueue.
package sink

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/karo-systems/karo-logger/internal/message"
)

// queueCapacity is the bounded outbound channel's fixed size (spec §4.8).
const queueCapacity = 100

// ansiReset ends a colorized run. levelColor maps each level to the
// bright ANSI color the original client uses for its stdout mirror
// (krossbar-log-lib: Error bright_red, Warn bright_yellow, Info
// bright_green, Debug bright_blue, Trace bright_white).
const ansiReset = "\x1b[0m"

var levelColor = map[message.Level]string{
	message.LevelTrace: "\x1b[97m",
	message.LevelDebug: "\x1b[94m",
	message.LevelInfo:  "\x1b[92m",
	message.LevelWarn:  "\x1b[93m",
	message.LevelError: "\x1b[91m",
}

// colorize renders rec as a colorized single-line "LEVEL: target > message"
// string, the level tag in its bright per-level color (spec §4.8's
// colorized stdout mirror).
func colorize(rec message.Record) string {
	return fmt.Sprintf("%s%s%s: %s > %s", levelColor[rec.Level], rec.Level, ansiReset, rec.Target, rec.Message)
}

// reconnectBackoff is the minimum interval between reconnect attempts
// (spec §4.8: "if now − last_connect_ts > 1s, attempt a single reconnect").
const reconnectBackoff = time.Second

// Sink is a process-wide log sink for one service. Log is safe to call
// from any goroutine; the sender goroutine does all socket I/O.
type Sink struct {
	serviceName string
	socketPath  string
	pid         int
	level       atomic.Int32
	logToStdout bool

	queue chan message.Record
	done  chan struct{}

	conn          net.Conn
	lastConnectTS time.Time
}

// New builds and starts a sink that forwards to socketPath under
// serviceName, gated at the given initial level, with an optional stdout
// mirror of every accepted record.
func New(socketPath, serviceName string, level message.Level, logToStdout bool) *Sink {
	s := &Sink{
		serviceName: serviceName,
		socketPath:  socketPath,
		pid:         os.Getpid(),
		logToStdout: logToStdout,
		queue:       make(chan message.Record, queueCapacity),
		done:        make(chan struct{}),
	}
	s.level.Store(int32(level))
	go s.run()
	return s
}

// Level returns the sink's current level, as most recently set locally or
// pushed by the control plane.
func (s *Sink) Level() message.Level { return message.Level(s.level.Load()) }

// SetLevel updates the sink's level, either from local configuration or a
// control-plane set_log_level push.
func (s *Sink) SetLevel(level message.Level) { s.level.Store(int32(level)) }

// Log is the capture hook: every logging call in the host process funnels
// through here. Records below the current level are dropped immediately;
// everything else is optionally mirrored to stdout and then enqueued for
// the sender goroutine, or dropped with a stderr diagnostic if the queue
// is full (spec §4.8 steps 1-3).
func (s *Sink) Log(level message.Level, target, msg string) {
	if !message.Enabled(s.Level(), level) {
		return
	}
	rec := message.New(s.serviceName, s.pid, level, target, msg)

	if s.logToStdout {
		fmt.Println(colorize(rec))
	}

	select {
	case s.queue <- rec:
	default:
		// Capacity error (spec §7): blocking the logging hot path risks
		// deadlocking the producer's own code, so the record is dropped.
		fmt.Fprintf(os.Stderr, "sink: outbound queue full, dropping record: %s", message.Render(rec))
	}
}

// Close stops the sender goroutine. Queued records not yet sent are
// abandoned (spec §5: "runs until the queue is dropped").
func (s *Sink) Close() {
	close(s.done)
}

func (s *Sink) run() {
	for {
		select {
		case rec := <-s.queue:
			s.deliver(rec)
		case <-s.done:
			return
		}
	}
}

// deliver implements the sender's write/reconnect/fallback steps (spec
// §4.8 steps 4-8).
func (s *Sink) deliver(rec message.Record) {
	env, err := message.NewMessage(message.EndpointLog, rec)
	if err != nil {
		s.stdoutFallback(rec)
		return
	}

	if s.conn != nil && message.WriteFrame(s.conn, env) == nil {
		return
	}
	s.dropConn()

	if time.Since(s.lastConnectTS) <= reconnectBackoff {
		s.stdoutFallback(rec)
		return
	}
	if !s.reconnect() {
		s.stdoutFallback(rec)
		return
	}
	if err := message.WriteFrame(s.conn, env); err != nil {
		s.dropConn()
		s.stdoutFallback(rec)
	}
}

// stdoutFallback prints the record with the "logger is down" marker
// (spec §7 "a dead daemon manifests as records appearing on stdout (with
// a 'Logger is down' marker)").
func (s *Sink) stdoutFallback(rec message.Record) {
	fmt.Printf("[logger is down] %s\n", colorize(rec))
}

func (s *Sink) dropConn() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// reconnect dials the daemon and registers under serviceName, starting a
// reader goroutine to demultiplex inbound set_log_level pushes alongside
// the sender's own writes (spec §4.8.2: "demultiplexed by the sender task
// alongside its writes").
func (s *Sink) reconnect() bool {
	s.lastConnectTS = time.Now()

	conn, err := net.Dial("unix", s.socketPath)
	if err != nil {
		return false
	}

	call, err := message.NewCall(uuid.NewString(), message.EndpointRegister, s.serviceName)
	if err != nil {
		conn.Close()
		return false
	}
	if err := message.WriteFrame(conn, call); err != nil {
		conn.Close()
		return false
	}
	resp, err := message.ReadFrame(conn)
	if err != nil || resp.Error != "" {
		conn.Close()
		return false
	}

	s.conn = conn
	go s.readInbound(conn)
	return true
}

// readInbound watches the registered connection for the daemon's
// one-way set_log_level pushes until the connection breaks.
func (s *Sink) readInbound(conn net.Conn) {
	for {
		env, err := message.ReadFrame(conn)
		if err != nil {
			return
		}
		if env.Kind != message.KindMessage || env.Endpoint != message.EndpointSetLogLevel {
			continue
		}
		var body message.SetLogLevelBody
		if err := json.Unmarshal(env.Body, &body); err != nil {
			continue
		}
		s.SetLevel(body.Level)
	}
}
