package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// CopyWinsize copies the terminal window size of from onto to. Both
// ioctls run under SyscallConn so neither descriptor loses its poller
// registration.
func CopyWinsize(from, to *os.File) error {
	fromConn, err := from.SyscallConn()
	if err != nil {
		return err
	}
	toConn, err := to.SyscallConn()
	if err != nil {
		return err
	}

	var size *unix.Winsize
	var getErr error
	if err := fromConn.Control(func(fd uintptr) {
		size, getErr = unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	}); err != nil {
		return err
	}
	if getErr != nil {
		return getErr
	}

	var setErr error
	if err := toConn.Control(func(fd uintptr) {
		setErr = unix.IoctlSetWinsize(int(fd), unix.TIOCSWINSZ, size)
	}); err != nil {
		return err
	}
	return setErr
}
