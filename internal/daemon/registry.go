package daemon

import (
	"sync"

	"github.com/karo-systems/karo-logger/internal/message"
)

// ClientHandle is the writer half of one registered session's connection,
// used by the control plane to push set_log_level without touching the
// session's own read loop (spec §3 "Client registry").
type ClientHandle struct {
	Pid  int
	Send func(message.Envelope) error
}

// ClientRegistry maps service_name to its writer-half handle. It is
// guarded by a mutex because the control plane (C10) reads it
// concurrently with admission and disconnect (spec §5): holders copy the
// handle out and drop the lock before performing any I/O.
type ClientRegistry struct {
	mu      sync.Mutex
	clients map[string]*ClientHandle
}

func newClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*ClientHandle)}
}

// NewClientRegistry builds an empty registry. Exported for the control
// plane's and the dispatcher's tests, which exercise it directly without
// standing up a full daemon.
func NewClientRegistry() *ClientRegistry { return newClientRegistry() }

// Register inserts service if absent, returning false if it already
// exists (spec §4.6: duplicate registration does not evict the existing
// entry).
func (r *ClientRegistry) Register(service string, h *ClientHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[service]; exists {
		return false
	}
	r.clients[service] = h
	return true
}

func (r *ClientRegistry) remove(service string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, service)
}

// Lookup returns the handle for service without holding the lock during
// any subsequent I/O the caller performs.
func (r *ClientRegistry) Lookup(service string) (*ClientHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.clients[service]
	return h, ok
}

// Names returns a snapshot of currently registered service names.
func (r *ClientRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}
