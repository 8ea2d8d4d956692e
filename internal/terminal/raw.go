package terminal

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// RawState holds the saved terminal mode of a stream that was switched to
// raw mode for the relay. Restore is safe to call more than once and from
// a signal handler goroutine concurrently with the normal exit path.
type RawState struct {
	file  *os.File
	state *term.State
	once  sync.Once
}

// MakeRaw switches the stream into raw mode so every byte the user types
// reaches the pseudo-terminal unmodified (the remote side owns line
// discipline and echo). Returns the saved state for restoration.
func MakeRaw(f *os.File) (*RawState, error) {
	rawConn, err := f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var state *term.State
	var rawErr error
	if err := rawConn.Control(func(fd uintptr) {
		state, rawErr = term.MakeRaw(int(fd))
	}); err != nil {
		return nil, err
	}
	if rawErr != nil {
		return nil, rawErr
	}
	return &RawState{file: f, state: state}, nil
}

// Restore puts the terminal back into its pre-raw mode. The teardown
// controller calls it before closing the stream, so the descriptor is
// still valid here.
func (r *RawState) Restore() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		rawConn, err := r.file.SyscallConn()
		if err != nil {
			return
		}
		_ = rawConn.Control(func(fd uintptr) {
			_ = term.Restore(int(fd), r.state)
		})
	})
}
