// Package client orchestrates one elevation request end to end: probe the
// standard streams, allocate a pseudo-terminal when needed, run the daemon
// handshake, relay terminal I/O, and return the remote shell's exit status.
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/doughall/elevate/internal/protocol"
	"github.com/doughall/elevate/internal/pts"
	"github.com/doughall/elevate/internal/relay"
	"github.com/doughall/elevate/internal/request"
	"github.com/doughall/elevate/internal/teardown"
	"github.com/doughall/elevate/internal/terminal"
)

// Failure classes surfaced to the caller. Denial is protocol.ErrDenied and
// allocation failure is pts.ErrExhausted; relay-level I/O errors are
// absorbed by the relay and never reach here.
var (
	// ErrConnection means the daemon was unreachable or the connection
	// broke before the admission decision. Not retryable.
	ErrConnection = errors.New("daemon connection failed")

	// ErrAbnormalExit means the connection broke after admission but
	// before the final status arrived; the remote shell's real exit
	// status is unknown.
	ErrAbnormalExit = errors.New("session ended without an exit status")
)

// Streams is the standard stream triple for one invocation, injectable so
// tests can run sessions over pipes.
type Streams struct {
	In  *os.File
	Out *os.File
	Err *os.File
}

// StdStreams returns the process's own standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Client runs elevation requests against one daemon socket.
type Client struct {
	socketPath string
	base       *slog.Logger // untagged, handed to subcomponents
	logger     *slog.Logger
}

// New creates a client for the daemon at socketPath.
func New(socketPath string, logger *slog.Logger) *Client {
	return &Client{
		socketPath: socketPath,
		base:       logger,
		logger:     logger.With(slog.String("component", "client")),
	}
}

// Run executes one elevation request and returns the remote shell's exit
// status. The returned error classifies failures per the package error
// variables; on success the status is whatever the daemon reported, 0
// included.
func (c *Client) Run(req *request.ElevationRequest, streams Streams) (int, error) {
	attach := terminal.ProbeFiles(streams.In, streams.Out, streams.Err)

	// The slave path must exist before the handshake: it is part of the
	// request the daemon admits.
	var session *pts.Session
	slavePath := ""
	if attach.Any() {
		var err error
		session, err = pts.Allocate()
		if err != nil {
			return 0, err
		}
		defer session.Close()
		slavePath = session.SlavePath
	}

	conn, err := protocol.Dial(c.socketPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer conn.Close()

	if err := conn.WriteRequest(req, slavePath); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// Streams attached to a real terminal are substituted with the
	// pseudo-terminal slave; the client must keep the real descriptor to
	// pump bytes and watch for resizes. Everything else is handed over
	// directly for exact passthrough with zero relaying.
	handoffs := []struct {
		attached bool
		file     *os.File
	}{
		{attach.Stdin, streams.In},
		{attach.Stdout, streams.Out},
		{attach.Stderr, streams.Err},
	}
	for _, h := range handoffs {
		handoff := protocol.Direct(h.file)
		if h.attached {
			handoff = protocol.Substitute()
		}
		if err := conn.SendStream(handoff); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrConnection, err)
		}
	}

	if err := conn.ReadAdmission(); err != nil {
		if errors.Is(err, protocol.ErrDenied) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if attach.Any() {
		var restore func()
		if attach.Stdin {
			raw, err := terminal.MakeRaw(streams.In)
			if err != nil {
				c.logger.Warn("raw mode unavailable", slog.String("error", err.Error()))
			} else {
				restore = raw.Restore
				defer raw.Restore()
			}
		}

		if attach.Stdout {
			if err := session.InheritSize(streams.Out); err != nil {
				c.logger.Debug("initial winsize seed failed", slog.String("error", err.Error()))
			}
		}

		closers := []io.Closer{streams.In, streams.Out, streams.Err, session.Master}
		ctrl := teardown.New(restore, closers, c.base)
		ctrl.Arm()

		relay.New(session.Master, streams.In, streams.Out, attach, c.base).Run()
	}

	status, err := conn.ReadStatus()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAbnormalExit, err)
	}
	return status, nil
}
