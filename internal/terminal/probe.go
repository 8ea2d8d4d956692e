// Package terminal inspects and manipulates the client's controlling
// terminal: probing which standard streams are real terminal devices,
// switching stdin into raw mode for the relay, and propagating window
// sizes.
//
// Every descriptor access goes through SyscallConn instead of File.Fd().
// Fd() puts the file into blocking mode and deregisters it from the
// runtime poller, and a deregistered descriptor no longer unblocks its
// readers on Close — which would defeat the teardown controller's only
// way of ending a blocked pump.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Attachment records, per standard stream, whether it is connected to a
// real terminal device. It is computed once after option parsing and is
// read-only afterwards: it decides whether a pseudo-terminal is allocated
// at all and, per stream, whether that stream is relayed through the
// pseudo-terminal or handed to the daemon directly.
type Attachment struct {
	Stdin  bool
	Stdout bool
	Stderr bool
}

// Probe reports the terminal attachment of the process's standard streams.
// Never fails: a stream without a terminal is a normal result.
func Probe() Attachment {
	return ProbeFiles(os.Stdin, os.Stdout, os.Stderr)
}

// ProbeFiles reports the terminal attachment of an explicit stream triple.
// Split out from Probe so tests can probe pipes.
func ProbeFiles(in, out, errStream *os.File) Attachment {
	return Attachment{
		Stdin:  isTerminal(in),
		Stdout: isTerminal(out),
		Stderr: isTerminal(errStream),
	}
}

// Any reports whether at least one stream is a terminal, i.e. whether a
// pseudo-terminal must be allocated.
func (a Attachment) Any() bool {
	return a.Stdin || a.Stdout || a.Stderr
}

// isTerminal probes a single stream without disturbing its poller
// registration.
func isTerminal(f *os.File) bool {
	rawConn, err := f.SyscallConn()
	if err != nil {
		return false
	}
	attached := false
	if err := rawConn.Control(func(fd uintptr) {
		attached = term.IsTerminal(int(fd))
	}); err != nil {
		return false
	}
	return attached
}
