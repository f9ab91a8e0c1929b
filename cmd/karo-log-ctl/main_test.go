package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/karo-systems/karo-logger/internal/message"
)

// fakeControlPlane answers exactly one clients() call with names, in
// whatever order the caller supplies, so the test can prove the CLI
// itself is what imposes sorted output.
func fakeControlPlane(t *testing.T, sockPath string, names []string) net.Listener {
	t.Helper()
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		env, err := message.ReadFrame(conn)
		if err != nil || env.Endpoint != message.EndpointClients {
			return
		}
		resp, _ := message.NewOkResponse(env.ID, names)
		message.WriteFrame(conn, resp)
	}()
	return ln
}

func TestListCmdSortsClientNames(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	ln := fakeControlPlane(t, sockPath, []string{"zebra", "alpha", "mango"})
	defer ln.Close()

	cmd := listCmd(&sockPath)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	os.Stdout = w

	runErr := cmd.RunE(cmd, nil)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)

	if runErr != nil {
		t.Fatalf("RunE: %v", runErr)
	}

	want := "alpha\nmango\nzebra\n"
	if got := buf.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}
