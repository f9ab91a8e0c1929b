package message

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderFormat(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 13, 5, 9, 123_000_000, time.Local)
	r := Record{
		Timestamp: ts,
		Service:   "test",
		Pid:       4242,
		Level:     LevelInfo,
		Target:    "core",
		Message:   "hello",
	}
	got := Render(r)
	want := "<07-03-2024 13:05:09.123> test#4242 [INFO] core > hello\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderEndsInNewline(t *testing.T) {
	r := New("svc", 1, LevelDebug, "t", "msg")
	got := Render(r)
	if !strings.HasSuffix(got, "\n") {
		t.Fatalf("Render() must end in newline, got %q", got)
	}
}

func TestParseLevelCaseInsensitive(t *testing.T) {
	cases := map[string]Level{
		"info": LevelInfo, "INFO": LevelInfo, "Info": LevelInfo,
		"warn": LevelWarn, "warning": LevelWarn,
		"err": LevelError, "error": LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
	if _, ok := ParseLevel("bogus"); ok {
		t.Fatalf("ParseLevel(bogus) should fail")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	env, err := NewCall("abc-1", EndpointRegister, "my-service")
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Kind != KindCall || got.Endpoint != EndpointRegister || got.ID != "abc-1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFrameMultipleInStream(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		env, _ := NewMessage(EndpointLog, New("svc", 1, LevelInfo, "t", "m"))
		if err := WriteFrame(&buf, env); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		env, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame #%d: %v", i, err)
		}
		if env.Kind != KindMessage || env.Endpoint != EndpointLog {
			t.Fatalf("frame #%d mismatch: %+v", i, env)
		}
	}
}

func TestReadFrameRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	hdr := make([]byte, 4)
	hdr[0] = 0xff
	hdr[1] = 0xff
	hdr[2] = 0xff
	hdr[3] = 0x7f
	buf.Write(hdr)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected oversized frame to be rejected")
	}
}
