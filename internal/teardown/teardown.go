// Package teardown provides the signal-driven teardown controller for one
// client invocation.
//
// The controller is a two-state machine. Armed, it owns the process-wide
// disposition of a fixed set of terminating signals. The first delivery of
// any of them trips it: the terminal is restored, the shared descriptors
// are closed so every blocked relay pump unblocks, and the whole signal set
// is reset to default disposition. The transition is one-way; a second
// signal now terminates the process unconditionally, a fail-safe against
// the cleanup itself hanging. The client then still reads the remote exit
// status off the daemon connection, which teardown never touches.
package teardown

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// QuitSignals is the fixed set of terminating signals the controller owns
// while armed.
var QuitSignals = []os.Signal{
	syscall.SIGALRM,
	syscall.SIGABRT,
	syscall.SIGHUP,
	syscall.SIGPIPE,
	syscall.SIGQUIT,
	syscall.SIGTERM,
	syscall.SIGINT,
}

// Controller coordinates signal-driven teardown. Construct with New, call
// Arm once, observe Tripped.
type Controller struct {
	restore func()
	closers []io.Closer
	logger  *slog.Logger

	sigCh   chan os.Signal
	tripped chan struct{}
	once    sync.Once
}

// New builds a controller. restore puts the real terminal back into its
// pre-raw mode and may be nil when no stream was switched to raw mode.
// closers are the descriptors shared with the relay pumps; closing them is
// what forces blocked reads and writes to return. The controller is the
// only entity allowed to close them while the relay runs.
func New(restore func(), closers []io.Closer, logger *slog.Logger) *Controller {
	return &Controller{
		restore: restore,
		closers: closers,
		logger:  logger.With(slog.String("component", "teardown")),
		tripped: make(chan struct{}),
	}
}

// Arm installs the teardown handler for the quit-signal set. Must be
// called before the relay starts so no window exists where a signal kills
// the process with the terminal still raw.
func (c *Controller) Arm() {
	c.sigCh = make(chan os.Signal, 1)
	signal.Notify(c.sigCh, QuitSignals...)
	go func() {
		sig, ok := <-c.sigCh
		if !ok {
			return
		}
		c.logger.Debug("terminating signal received", slog.String("signal", sig.String()))
		c.trip()
	}()
}

// Tripped returns a channel closed once the controller has tripped. Relay
// code may select on it, though descriptor closure alone already unblocks
// the pumps.
func (c *Controller) Tripped() <-chan struct{} {
	return c.tripped
}

// trip performs the one-way armed -> tripped transition: restore the
// terminal, close the shared descriptors, hand the signal set back to its
// default disposition. Subsequent calls are no-ops.
func (c *Controller) trip() {
	c.once.Do(func() {
		if c.restore != nil {
			c.restore()
		}
		for _, closer := range c.closers {
			_ = closer.Close()
		}
		signal.Reset(QuitSignals...)
		if c.sigCh != nil {
			signal.Stop(c.sigCh)
		}
		close(c.tripped)
	})
}
