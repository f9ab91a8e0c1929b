package control

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/karo-systems/karo-logger/internal/daemon"
	"github.com/karo-systems/karo-logger/internal/message"
)

type fakeDiag struct{ t *testing.T }

func (d fakeDiag) Warnf(format string, args ...any) { d.t.Logf("control warn: "+format, args...) }

func TestClientsReturnsRegistrySnapshot(t *testing.T) {
	reg := daemon.NewClientRegistry()
	reg.Register("alpha", &daemon.ClientHandle{Pid: 1, Send: func(message.Envelope) error { return nil }})

	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	ln, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	p := New(sockPath, reg, fakeDiag{t})
	go p.Serve(ln)

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	call, err := message.NewCall("1", message.EndpointClients, nil)
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	if err := message.WriteFrame(conn, call); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := message.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error response: %s", resp.Error)
	}

	var names []string
	if err := json.Unmarshal(resp.Result, &names); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(names) != 1 || names[0] != "alpha" {
		t.Fatalf("names = %v, want [alpha]", names)
	}
}

func TestClientsReturnsEveryRegisteredName(t *testing.T) {
	reg := daemon.NewClientRegistry()
	for _, name := range []string{"zebra", "alpha", "mango"} {
		reg.Register(name, &daemon.ClientHandle{Pid: 1, Send: func(message.Envelope) error { return nil }})
	}

	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	ln, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	p := New(sockPath, reg, fakeDiag{t})
	go p.Serve(ln)

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	call, err := message.NewCall("1", message.EndpointClients, nil)
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	if err := message.WriteFrame(conn, call); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := message.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error response: %s", resp.Error)
	}

	var names []string
	if err := json.Unmarshal(resp.Result, &names); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	want := map[string]bool{"zebra": true, "alpha": true, "mango": true}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want one entry per %v", names, want)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected name %q in %v", n, names)
		}
		delete(want, n)
	}
}
