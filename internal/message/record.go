package message

import (
	"fmt"
	"strings"
	"time"
)

// Record is a single log record, the unit of transfer and storage (spec §3).
// Records are immutable once created.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Pid       int       `json:"pid"`
	Level     Level     `json:"level"`
	Target    string    `json:"target"`
	Message   string    `json:"message"`
}

// New builds a record with the current local timestamp.
func New(service string, pid int, level Level, target, msg string) Record {
	return Record{
		Timestamp: time.Now(),
		Service:   service,
		Pid:       pid,
		Level:     level,
		Target:    target,
		Message:   msg,
	}
}

// renderTimeLayout produces "DD-MM-YYYY HH:MM:SS.mmm".
const renderTimeLayout = "02-01-2006 15:04:05.000"

// Render formats the record exactly as spec §3 requires:
//
//	<DD-MM-YYYY HH:MM:SS.mmm> <service>#<pid> [<LEVEL>] <target> > <message>\n
//
// Rendering is total (never fails) and deterministic. The returned byte
// length is the quantity charged against the writer's rotation threshold.
func Render(r Record) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(r.Timestamp.Format(renderTimeLayout))
	b.WriteString("> ")
	b.WriteString(r.Service)
	b.WriteByte('#')
	fmt.Fprintf(&b, "%d", r.Pid)
	b.WriteString(" [")
	b.WriteString(r.Level.String())
	b.WriteString("] ")
	b.WriteString(r.Target)
	b.WriteString(" > ")
	b.WriteString(r.Message)
	b.WriteByte('\n')
	return b.String()
}
