// Package pts allocates the pseudo-terminal pair that bridges the client's
// real terminal and the daemon-spawned shell.
//
// The client keeps the master side and pumps bytes across it; the daemon
// opens the slave by path and wires it up as the shell's controlling
// terminal. The slave is deliberately never opened here: on Linux a master
// read returns EIO once all slave descriptors close, so opening and closing
// our own slave descriptor would make the master report end-of-stream before
// the daemon ever attaches.
//
// All ioctls go through SyscallConn rather than File.Fd(). Fd() switches
// the descriptor to blocking mode and removes it from the runtime poller,
// after which closing the file no longer interrupts a blocked read — and
// closing the master under a blocked pump is exactly how teardown ends the
// relay.
package pts

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/doughall/elevate/internal/terminal"
)

// ErrExhausted is returned when the kernel has no free pseudo-terminal
// pairs. This is fatal to the request: allocation failure is rare and
// retrying risks leaking masters.
var ErrExhausted = errors.New("no free pseudo-terminal pairs")

// Session owns the master descriptor of one allocated pseudo-terminal pair
// and the filesystem path of its slave.
type Session struct {
	// Master is the client-held master descriptor.
	Master *os.File

	// SlavePath is the slave device path sent to the daemon, resolvable
	// from any process that can see /dev/pts.
	SlavePath string
}

// Allocate opens a new pseudo-terminal master and unlocks its slave.
func Allocate() (*Session, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open /dev/ptmx: %v", ErrExhausted, err)
	}

	rawConn, err := master.SyscallConn()
	if err != nil {
		master.Close()
		return nil, fmt.Errorf("pty master not controllable: %w", err)
	}

	var ptn uint32
	var ioctlErr error
	ctlErr := rawConn.Control(func(fd uintptr) {
		if ioctlErr = unix.IoctlSetPointerInt(int(fd), unix.TIOCSPTLCK, 0); ioctlErr != nil {
			ioctlErr = fmt.Errorf("unlock pty slave: %w", ioctlErr)
			return
		}
		ptn, ioctlErr = unix.IoctlGetUint32(int(fd), unix.TIOCGPTN)
		if ioctlErr != nil {
			ioctlErr = fmt.Errorf("query pty number: %w", ioctlErr)
		}
	})
	if ctlErr == nil {
		ctlErr = ioctlErr
	}
	if ctlErr != nil {
		master.Close()
		return nil, ctlErr
	}

	return &Session{
		Master:    master,
		SlavePath: fmt.Sprintf("/dev/pts/%d", ptn),
	}, nil
}

// InheritSize copies the window size of the given terminal onto the master,
// so the remote shell starts with the real terminal's dimensions. The
// resize watcher keeps them in sync afterwards.
func (s *Session) InheritSize(from *os.File) error {
	return terminal.CopyWinsize(from, s.Master)
}

// Close releases the master descriptor. The remote shell observes a hangup
// once the daemon's side also closes.
func (s *Session) Close() error {
	return s.Master.Close()
}
