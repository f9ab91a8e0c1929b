package daemon

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerPid extracts the connecting process's pid from a Unix-domain stream
// socket via SO_PEERCRED (spec §4.6: "capture the OS peer credentials (pid
// at minimum)"). It returns 0 if the connection isn't a Unix socket or the
// credential can't be read; callers treat that as a non-fatal degradation,
// not a reason to refuse the connection.
func peerPid(conn net.Conn) int {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return 0
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return 0
	}

	var pid int
	_ = raw.Control(func(fd uintptr) {
		cred, err := unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
		if err != nil {
			return
		}
		pid = int(cred.Pid)
	})
	return pid
}
