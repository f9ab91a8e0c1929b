// Package daemon implements the per-host logging daemon: the Unix-socket
// acceptor, the per-connection registration/log session machine, and the
// single-threaded dispatcher that serializes every record through the
// writer (spec §4.6-§4.8, C6-C8).
package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/karo-systems/karo-logger/internal/message"
	"github.com/karo-systems/karo-logger/internal/rotator"
	"github.com/karo-systems/karo-logger/internal/writer"
)

// Config is everything Run needs to bring a daemon up, sourced from the
// command's flags (spec §6).
type Config struct {
	SocketPath  string
	LogPath     string
	RotateBytes int64
	KeepFiles   int
	// Level gates the daemon's own self-log records (--log-level);
	// client records flow through unconditionally, gated only by the
	// sending client's own sink (C9), not here.
	Level message.Level
}

// logChanDepth bounds how many in-flight log events may queue ahead of
// the dispatcher before a session's forwarding send blocks. It is not a
// client-visible contract (unlike the sink's bounded queue, C9), just
// headroom against a burst of concurrent writers.
const logChanDepth = 256

// rotatedChanDepth bounds how many pending rotation announcements may
// queue for the control plane before one is dropped (spec §4.8: a
// rotation with no control-plane listener attached is not an error).
const rotatedChanDepth = 8

// Daemon owns the registry, the live-file writer, and the self-logger,
// and runs the dispatcher loop that serializes all three (spec §5: a
// single goroutine owns the writer).
type Daemon struct {
	cfg      Config
	registry *ClientRegistry
	writer   *writer.Writer
	self     *SelfLogger
	diag     Diagnostics

	logCh     chan LogEvent
	rotatedCh chan string
}

// New builds a daemon against cfg, opening the live file immediately so
// that a bad log-directory path fails the process at startup rather than
// on the first record (spec §7).
func New(cfg Config) (*Daemon, error) {
	logCh := make(chan LogEvent, logChanDepth)
	self := NewSelfLogger(logCh, cfg.Level)

	// Writer failures go to stderr, not back through the self-logger into
	// the very file that failed (spec §7).
	writerDiag, err := NewStdDiagnostics(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}

	rot := rotator.New(cfg.LogPath, cfg.KeepFiles)
	w, err := writer.New(cfg.LogPath, cfg.RotateBytes, rot, writerDiag)
	if err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		registry:  newClientRegistry(),
		writer:    w,
		self:      self,
		diag:      self,
		logCh:     logCh,
		rotatedCh: make(chan string, rotatedChanDepth),
	}, nil
}

// Registry exposes the client directory for the control plane (C10),
// which looks up a service's writer-half handle to push set_log_level
// and reads Names() to answer clients().
func (d *Daemon) Registry() *ClientRegistry { return d.registry }

// Rotated delivers the path of each file the writer rotates away, for the
// control plane to broadcast to anyone watching (spec §4.8). A rotation
// event is dropped, not queued indefinitely, if nobody is listening.
func (d *Daemon) Rotated() <-chan string { return d.rotatedCh }

// SelfLog exposes the daemon's own structured logger, for anything wired
// in later that wants its lifecycle events riding the same fleet.
func (d *Daemon) SelfLog() *SelfLogger { return d.self }

// Run accepts connections on cfg.SocketPath and serves them until ctx is
// canceled or a termination signal arrives, in the teacher's own
// sigCh/errCh/select shutdown shape (grounded on the old daemon.Run and
// transport.Server.ListenAndServe).
func (d *Daemon) Run(ctx context.Context) error {
	os.Remove(d.cfg.SocketPath)

	ln, err := net.Listen("unix", d.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("daemon: listen unix %s: %w", d.cfg.SocketPath, err)
	}
	defer os.Remove(d.cfg.SocketPath)

	// World-writable: any local process may dial in and register as a
	// client (spec §4.6/§6 — access control is out of scope).
	if err := os.Chmod(d.cfg.SocketPath, 0o666); err != nil {
		d.diag.Warnf("daemon: chmod socket %s: %v", d.cfg.SocketPath, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	connCh := make(chan net.Conn)
	acceptErrCh := make(chan error, 1)
	go acceptLoop(ln, connCh, acceptErrCh)

	d.self.Infof("daemon listening on %s", d.cfg.SocketPath)

	for {
		select {
		case conn := <-connCh:
			go newSession(conn, d.registry, d.logCh, d.diag).run()

		case ev := <-d.logCh:
			d.handleLogEvent(ev)

		case err := <-acceptErrCh:
			ln.Close()
			return fmt.Errorf("daemon: accept: %w", err)

		case sig := <-sigCh:
			d.self.Infof("daemon: received %s, shutting down", sig)
			ln.Close()
			d.drainLogCh()
			d.writer.Close()
			return nil

		case <-ctx.Done():
			ln.Close()
			d.drainLogCh()
			d.writer.Close()
			return ctx.Err()
		}
	}
}

func (d *Daemon) handleLogEvent(ev LogEvent) {
	rotated := d.writer.Append(ev.Record)
	if rotated == "" {
		return
	}
	select {
	case d.rotatedCh <- rotated:
	default:
		d.diag.Warnf("daemon: dropped rotation signal for %s, no control-plane listener", rotated)
	}
}

// drainLogCh flushes whatever is already queued so a clean shutdown
// doesn't silently discard records accepted moments before.
func (d *Daemon) drainLogCh() {
	for {
		select {
		case ev := <-d.logCh:
			d.handleLogEvent(ev)
		default:
			return
		}
	}
}

func acceptLoop(ln net.Listener, connCh chan<- net.Conn, errCh chan<- error) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			errCh <- err
			return
		}
		connCh <- conn
	}
}
