// Package control implements the daemon's control-plane bus surface
// (spec §4.9, C10): clients(), set_log_level(service_name, level), and the
// rotated(path) signal, all carried over the same length-prefixed
// envelope framing the client sessions use, on a separate socket.
package control

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/karo-systems/karo-logger/internal/daemon"
	"github.com/karo-systems/karo-logger/internal/message"
)

// Diagnostics receives non-fatal control-plane failures.
type Diagnostics interface {
	Warnf(format string, args ...any)
}

// Plane serves the control socket: request/response for clients() and
// set_log_level(), and a fan-out of rotated(path) signals to every
// connected subscriber.
type Plane struct {
	socketPath string
	registry   *daemon.ClientRegistry
	diag       Diagnostics

	mu   sync.Mutex
	subs map[net.Conn]struct{}
}

// New builds a control plane fronting registry, listening at socketPath.
func New(socketPath string, registry *daemon.ClientRegistry, diag Diagnostics) *Plane {
	return &Plane{
		socketPath: socketPath,
		registry:   registry,
		diag:       diag,
		subs:       make(map[net.Conn]struct{}),
	}
}

// Serve accepts control connections until ln is closed (by the caller, on
// shutdown). Each connection gets its own request/response loop and is
// registered as a rotated-signal subscriber for its lifetime.
func (p *Plane) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		p.addSub(conn)
		go p.handle(conn)
	}
}

// Listen opens the control socket the way the daemon's client socket is
// opened: stale file removed first, world-writable after bind.
func Listen(socketPath string) (net.Listener, error) {
	os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("control: listen unix %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0o666); err != nil {
		return ln, fmt.Errorf("control: chmod socket %s: %w", socketPath, err)
	}
	return ln, nil
}

func (p *Plane) addSub(conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[conn] = struct{}{}
}

func (p *Plane) removeSub(conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, conn)
}

func (p *Plane) handle(conn net.Conn) {
	defer func() {
		p.removeSub(conn)
		conn.Close()
	}()

	for {
		env, err := message.ReadFrame(conn)
		if err != nil {
			return
		}
		if env.Kind != message.KindCall {
			p.respondErr(conn, env.ID, fmt.Sprintf("expected call, got kind=%s", env.Kind))
			continue
		}

		switch env.Endpoint {
		case message.EndpointClients:
			p.handleClients(conn, env)
		case message.EndpointSetLogLevel:
			p.handleSetLogLevel(conn, env)
		default:
			p.respondErr(conn, env.ID, fmt.Sprintf("unknown endpoint %q", env.Endpoint))
		}
	}
}

func (p *Plane) handleClients(conn net.Conn, env message.Envelope) {
	names := p.registry.Names()
	resp, err := message.NewOkResponse(env.ID, names)
	if err != nil {
		p.diag.Warnf("control: encode clients response: %v", err)
		return
	}
	if err := message.WriteFrame(conn, resp); err != nil {
		p.diag.Warnf("control: write clients response: %v", err)
	}
}

func (p *Plane) handleSetLogLevel(conn net.Conn, env message.Envelope) {
	var params message.SetLogLevelParams
	if err := json.Unmarshal(env.Params, &params); err != nil {
		p.respondErr(conn, env.ID, fmt.Sprintf("decode set_log_level params: %v", err))
		return
	}

	handle, ok := p.registry.Lookup(params.ServiceName)
	if !ok {
		p.respondErr(conn, env.ID, fmt.Sprintf("unknown service %q", params.ServiceName))
		return
	}

	push, err := message.NewMessage(message.EndpointSetLogLevel, message.SetLogLevelBody{Level: params.Level})
	if err != nil {
		p.diag.Warnf("control: encode set_log_level push: %v", err)
		p.respondErr(conn, env.ID, "internal error")
		return
	}
	if err := handle.Send(push); err != nil {
		p.respondErr(conn, env.ID, fmt.Sprintf("push set_log_level to %q: %v", params.ServiceName, err))
		return
	}

	resp, err := message.NewOkResponse(env.ID, nil)
	if err != nil {
		p.diag.Warnf("control: encode set_log_level response: %v", err)
		return
	}
	if err := message.WriteFrame(conn, resp); err != nil {
		p.diag.Warnf("control: write set_log_level response: %v", err)
	}
}

func (p *Plane) respondErr(conn net.Conn, id, msg string) {
	_ = message.WriteFrame(conn, message.NewErrResponse(id, msg))
}

// BroadcastRotated pushes a rotated(path) signal to every connected
// subscriber (spec §4.9). Send failures just drop that one subscriber's
// delivery; they're pruned properly when their read loop sees the error.
func (p *Plane) BroadcastRotated(path string) {
	body := message.RotatedSignalBody{Path: path}
	env, err := message.NewMessage(message.SignalRotated, body)
	if err != nil {
		p.diag.Warnf("control: encode rotated signal: %v", err)
		return
	}

	p.mu.Lock()
	conns := make([]net.Conn, 0, len(p.subs))
	for c := range p.subs {
		conns = append(conns, c)
	}
	p.mu.Unlock()

	for _, c := range conns {
		if err := message.WriteFrame(c, env); err != nil {
			p.diag.Warnf("control: push rotated signal: %v", err)
		}
	}
}

// Run drains daemon's rotated-path channel and fans each one out until
// the channel is closed or stop fires.
func (p *Plane) Run(rotated <-chan string, stop <-chan struct{}) {
	for {
		select {
		case path, ok := <-rotated:
			if !ok {
				return
			}
			p.BroadcastRotated(path)
		case <-stop:
			return
		}
	}
}
