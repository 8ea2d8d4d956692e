// Package relay pumps bytes between the client's real terminal and the
// pseudo-terminal master while the remote shell runs.
//
// Three duties run concurrently, engaged per stream only where the daemon
// received the pseudo-terminal substitute instead of a live descriptor:
//
//   - the input pump copies stdin to the master in the background and is
//     never awaited: its only job is the side effect, and it ends on its
//     own when stdin hits end-of-stream or the teardown controller closes
//     the descriptors under it
//   - the output pump copies the master to stdout on the calling goroutine;
//     its return is the signal that the session is over and the final
//     status may be read from the daemon
//   - the resize watcher forwards SIGWINCH window-size changes to the
//     master so the remote shell's dimensions track the real terminal
//
// Pump I/O errors are expected control flow (a pty master read reports EIO
// once the slave side hangs up, and teardown closes descriptors mid-read);
// they end the affected pump silently and are never surfaced to the user.
package relay

import (
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/doughall/elevate/internal/terminal"
)

// Relay couples one pseudo-terminal master with the client's standard
// streams for the duration of a session.
type Relay struct {
	master *os.File
	in     *os.File
	out    *os.File
	attach terminal.Attachment
	logger *slog.Logger
}

// New builds a relay over the given master and streams. attach decides
// which pumps engage; streams whose descriptor was handed to the daemon
// directly need no relaying.
func New(master, in, out *os.File, attach terminal.Attachment, logger *slog.Logger) *Relay {
	return &Relay{
		master: master,
		in:     in,
		out:    out,
		attach: attach,
		logger: logger.With(slog.String("component", "relay")),
	}
}

// Run starts the engaged pumps and blocks until the output pump observes
// end-of-stream on the master. When stdout is not a terminal there is no
// output pump and Run returns immediately; the subsequent blocking read of
// the final status then provides the session-lifetime wait.
func (r *Relay) Run() {
	if r.attach.Stdin {
		go r.pumpInput()
	}
	if r.attach.Stdout {
		done := make(chan struct{})
		go r.watchResize(done)
		r.pumpOutput()
		close(done)
	}
}

// pumpInput copies the real input stream into the master until EOF or
// error, then stops silently: the remote shell sees end-of-input naturally.
func (r *Relay) pumpInput() {
	_, err := io.Copy(r.master, r.in)
	if err != nil {
		r.logger.Debug("input pump ended", slog.String("error", err.Error()))
	}
}

// pumpOutput copies the master to the real output stream until the master
// reports end-of-stream, meaning the remote session ended or teardown
// closed the master.
func (r *Relay) pumpOutput() {
	_, err := io.Copy(r.out, r.master)
	if err != nil {
		r.logger.Debug("output pump ended", slog.String("error", err.Error()))
	}
}

// watchResize forwards every SIGWINCH to the master until the output pump
// finishes. The initial size is seeded by the caller before the relay
// starts. Resize failures are ignored; a stale size is harmless next to a
// dead session.
func (r *Relay) watchResize(done <-chan struct{}) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, unix.SIGWINCH)
	defer signal.Stop(winch)

	for {
		select {
		case <-winch:
			if err := terminal.CopyWinsize(r.out, r.master); err != nil {
				r.logger.Debug("resize failed", slog.String("error", err.Error()))
			}
		case <-done:
			return
		}
	}
}
