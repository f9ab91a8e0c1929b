package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/karo-systems/karo-logger/internal/message"
)

// AlreadyRegistered is the typed response sent to a second registration
// attempt under an already-taken service name (spec §4.6, §7). The
// existing registration is not evicted.
const AlreadyRegistered = "AlreadyRegistered"

// LogEvent is what a running session forwards to the dispatcher for each
// valid incoming log record (spec §4.6).
type LogEvent struct {
	Pid         int
	ServiceName string
	Record      message.Record
}

// session runs the two-state machine for one accepted connection
// (spec §4.6): Awaiting-register, then Running. It owns conn exclusively.
type session struct {
	conn     net.Conn
	pid      int
	registry *ClientRegistry
	logCh    chan<- LogEvent
	diag     Diagnostics
}

func newSession(conn net.Conn, registry *ClientRegistry, logCh chan<- LogEvent, diag Diagnostics) *session {
	return &session{
		conn:     conn,
		pid:      peerPid(conn),
		registry: registry,
		logCh:    logCh,
		diag:     diag,
	}
}

// run drives the session to completion, always closing conn and
// unregistering the service name (if one was bound) before returning.
func (s *session) run() {
	defer s.conn.Close()

	service, ok := s.awaitRegister()
	if !ok {
		return
	}
	defer func() {
		s.registry.remove(service)
		s.diag.Infof("daemon: %s (pid %d) disconnected", service, s.pid)
	}()

	s.runLogLoop(service)
}

// awaitRegister handles the Awaiting-register state. It returns the bound
// service name and true on success.
func (s *session) awaitRegister() (string, bool) {
	env, err := message.ReadFrame(s.conn)
	if err != nil {
		s.diag.Warnf("daemon: session closed before registering: %v", err)
		return "", false
	}

	service, err := decodeRegisterCall(env)
	if err != nil {
		s.respondErr(env.ID, err.Error())
		return "", false
	}

	handle := &ClientHandle{
		Pid: s.pid,
		Send: func(out message.Envelope) error {
			return message.WriteFrame(s.conn, out)
		},
	}
	if !s.registry.Register(service, handle) {
		resp := message.NewErrResponse(env.ID, AlreadyRegistered)
		_ = message.WriteFrame(s.conn, resp)
		return "", false
	}

	resp, err := message.NewOkResponse(env.ID, nil)
	if err != nil {
		s.diag.Warnf("daemon: encode register response: %v", err)
	}
	if err := message.WriteFrame(s.conn, resp); err != nil {
		s.registry.remove(service)
		return "", false
	}

	s.diag.Infof("daemon: %s (pid %d) registered", service, s.pid)
	return service, true
}

func decodeRegisterCall(env message.Envelope) (string, error) {
	if env.Kind != message.KindCall || env.Endpoint != message.EndpointRegister {
		return "", fmt.Errorf("expected register call, got kind=%s endpoint=%s", env.Kind, env.Endpoint)
	}
	var service string
	if err := json.Unmarshal(env.Params, &service); err != nil {
		return "", fmt.Errorf("decode register params: %w", err)
	}
	if service == "" {
		return "", errors.New("empty service name")
	}
	return service, nil
}

// runLogLoop handles the Running state: every subsequent frame must be a
// one-way log message (spec §4.6).
func (s *session) runLogLoop(service string) {
	for {
		env, err := message.ReadFrame(s.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.diag.Warnf("daemon: %s: read error: %v", service, err)
			}
			return
		}

		record, err := decodeLogMessage(env)
		if err != nil {
			s.respondErr(env.ID, err.Error())
			return
		}

		s.logCh <- LogEvent{Pid: s.pid, ServiceName: service, Record: record}
	}
}

func decodeLogMessage(env message.Envelope) (message.Record, error) {
	if env.Kind != message.KindMessage || env.Endpoint != message.EndpointLog {
		return message.Record{}, fmt.Errorf("expected log message, got kind=%s endpoint=%s", env.Kind, env.Endpoint)
	}
	var r message.Record
	if err := json.Unmarshal(env.Body, &r); err != nil {
		return message.Record{}, fmt.Errorf("decode log record: %w", err)
	}
	return r, nil
}

func (s *session) respondErr(id, msg string) {
	_ = message.WriteFrame(s.conn, message.NewErrResponse(id, msg))
}
