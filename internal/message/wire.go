package message

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Kind discriminates the three frame shapes the wire protocol carries
// (spec §6): a request expecting a response, the matching response, and a
// fire-and-forget one-way message.
type Kind string

const (
	KindCall     Kind = "call"
	KindResponse Kind = "response"
	KindMessage  Kind = "message"
)

// Well-known endpoint names (spec §6, §4.6, §4.9).
const (
	EndpointRegister     = "register"
	EndpointLog          = "log"
	EndpointSetLogLevel  = "set_log_level"
	EndpointClients      = "clients"
	SignalRotated        = "rotated"
)

// Envelope is one frame of the length-prefixed wire protocol. Only the
// fields relevant to Kind are populated; the rest are left at zero value.
// This is the concrete realization of the "assumed" structured-document
// transport spec.md treats as an external collaborator (§1 Out of scope).
type Envelope struct {
	Kind     Kind            `json:"kind"`
	ID       string          `json:"id,omitempty"`       // Call/Response correlation id
	Endpoint string          `json:"endpoint,omitempty"` // Call/Message
	Params   json.RawMessage `json:"params,omitempty"`   // Call
	Body     json.RawMessage `json:"body,omitempty"`     // Message
	Result   json.RawMessage `json:"result,omitempty"`   // Response, success payload
	Error    string          `json:"error,omitempty"`    // Response, non-empty on failure
}

// NewCall builds a Call envelope, JSON-encoding params.
func NewCall(id, endpoint string, params any) (Envelope, error) {
	p, err := json.Marshal(params)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode call params: %w", err)
	}
	return Envelope{Kind: KindCall, ID: id, Endpoint: endpoint, Params: p}, nil
}

// NewMessage builds a one-way Message envelope.
func NewMessage(endpoint string, body any) (Envelope, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode message body: %w", err)
	}
	return Envelope{Kind: KindMessage, Endpoint: endpoint, Body: b}, nil
}

// NewOkResponse builds a successful Response envelope.
func NewOkResponse(id string, result any) (Envelope, error) {
	var r json.RawMessage
	if result != nil {
		enc, err := json.Marshal(result)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode response result: %w", err)
		}
		r = enc
	}
	return Envelope{Kind: KindResponse, ID: id, Result: r}, nil
}

// NewErrResponse builds a failed Response envelope.
func NewErrResponse(id string, errMsg string) Envelope {
	return Envelope{Kind: KindResponse, ID: id, Error: errMsg}
}

// maxFrameBytes bounds a single frame's payload so a malformed or hostile
// peer can't force an unbounded allocation.
const maxFrameBytes = 8 << 20 // 8 MiB

// WriteFrame writes one length-prefixed JSON frame: a 4-byte little-endian
// payload length followed by the JSON payload itself. Grounded on the
// original implementation's length-prefixed document framing (a 4-byte
// length header precedes each document on the wire).
func WriteFrame(w io.Writer, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(payload) > maxFrameBytes {
		return fmt.Errorf("frame too large: %d bytes", len(payload))
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON frame.
func ReadFrame(r io.Reader) (Envelope, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > maxFrameBytes {
		return Envelope{}, fmt.Errorf("frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Envelope{}, fmt.Errorf("read frame body: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	return env, nil
}

// SetLogLevelBody is the Message body for the set_log_level endpoint
// (daemon -> client, spec §4.9, §6).
type SetLogLevelBody struct {
	Level Level `json:"level"`
}

// SetLogLevelParams is the Call params for the control-plane set_log_level
// method (control -> daemon, spec §4.9, §6).
type SetLogLevelParams struct {
	ServiceName string `json:"service_name"`
	Level       Level  `json:"level"`
}

// RotatedSignalBody is the Message body for the rotated signal (spec §4.9).
type RotatedSignalBody struct {
	Path string `json:"path"`
}
