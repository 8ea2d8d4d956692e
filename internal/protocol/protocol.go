// Package protocol implements the client side of the elevation daemon's wire
// protocol over a Unix domain socket, plus the daemon-side decoder used by
// the test double.
//
// The channel is a single ordered byte stream, augmented with SCM_RIGHTS
// control messages that carry live file descriptors interleaved with the
// bytes. One elevation request is sent per connection, in this order:
//
//	uint32 request tag
//	uint32 uid, login, keepenv, mount_master   (packed record, field by field)
//	string shell, command, slave path          (uint32 length + bytes)
//	3 stream handoffs                          (stdin, stdout, stderr)
//	<- uint32 admission (0 = admitted)
//	... terminal relay runs out-of-band ...
//	<- uint32 final exit status
//
// All integers are little-endian and exactly four bytes; the record is
// encoded field by field so the wire layout never depends on in-memory
// struct layout.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/doughall/elevate/internal/request"
)

// TagSuperuser identifies an elevation request on the daemon socket, which
// multiplexes several services over the same endpoint.
const TagSuperuser uint32 = 1

// maxStringLen bounds decoded string lengths. Commands are capped by the
// kernel's argument size limit, so anything larger is a framing error.
const maxStringLen = 128 * 1024

// Protocol errors.
var (
	// ErrDenied is returned by ReadAdmission when the daemon rejects the
	// request.
	ErrDenied = errors.New("elevation denied by daemon")

	// ErrBadFrame is returned by the decoder on malformed input.
	ErrBadFrame = errors.New("malformed protocol frame")
)

// Handoff describes how one standard stream reaches the daemon: either the
// live descriptor travels over the socket (Direct), or a sentinel tells the
// daemon to open the pseudo-terminal slave instead (Substitute). The zero
// value is a Substitute.
type Handoff struct {
	file *os.File
}

// Substitute returns the handoff meaning "no descriptor, use the
// pseudo-terminal slave".
func Substitute() Handoff {
	return Handoff{}
}

// Direct returns a handoff carrying the given live descriptor.
func Direct(f *os.File) Handoff {
	return Handoff{file: f}
}

// IsDirect reports whether the handoff carries a descriptor.
func (h Handoff) IsDirect() bool {
	return h.file != nil
}

// Conn is one client connection to the elevation daemon. Not safe for
// concurrent use; the relay never touches it.
type Conn struct {
	uc *net.UnixConn
}

// Dial connects to the daemon's Unix socket.
func Dial(socketPath string) (*Conn, error) {
	uc, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", socketPath, err)
	}
	return &Conn{uc: uc}, nil
}

// WriteRequest sends the request tag, the packed scalar record, and the
// three strings. slavePath is empty when no pseudo-terminal was allocated.
func (c *Conn) WriteRequest(req *request.ElevationRequest, slavePath string) error {
	for _, v := range []uint32{
		TagSuperuser,
		req.UID,
		boolToWire(req.Login),
		boolToWire(req.KeepEnv),
		boolToWire(req.MountMaster),
	} {
		if err := writeUint32(c.uc, v); err != nil {
			return fmt.Errorf("send request header: %w", err)
		}
	}
	for _, s := range []string{req.Shell, req.Command, slavePath} {
		if err := writeString(c.uc, s); err != nil {
			return fmt.Errorf("send request string: %w", err)
		}
	}
	return nil
}

// SendStream transfers one stream handoff. The payload is a single byte;
// for a Direct handoff the descriptor rides along as an SCM_RIGHTS control
// message, for a Substitute none is attached.
//
// The descriptor is captured under SyscallConn, not File.Fd(): Fd() would
// drop the stream out of the runtime poller, and teardown relies on
// poller-backed closes to unblock the relay pumps.
func (c *Conn) SendStream(h Handoff) error {
	if !h.IsDirect() {
		if _, _, err := c.uc.WriteMsgUnix([]byte{0}, nil, nil); err != nil {
			return fmt.Errorf("send stream descriptor: %w", err)
		}
		return nil
	}

	rawConn, err := h.file.SyscallConn()
	if err != nil {
		return fmt.Errorf("stream not controllable: %w", err)
	}
	var sendErr error
	ctlErr := rawConn.Control(func(fd uintptr) {
		oob := unix.UnixRights(int(fd))
		_, _, sendErr = c.uc.WriteMsgUnix([]byte{0}, oob, nil)
	})
	if ctlErr != nil {
		return fmt.Errorf("send stream descriptor: %w", ctlErr)
	}
	if sendErr != nil {
		return fmt.Errorf("send stream descriptor: %w", sendErr)
	}
	return nil
}

// ReadAdmission reads the daemon's admission decision. Returns nil when
// admitted, ErrDenied when the daemon rejected the request, or a transport
// error if the connection broke before the decision arrived.
func (c *Conn) ReadAdmission() error {
	decision, err := readUint32(c.uc)
	if err != nil {
		return fmt.Errorf("read admission decision: %w", err)
	}
	if decision != 0 {
		return ErrDenied
	}
	return nil
}

// ReadStatus reads the final exit status of the remote shell. Called only
// after the relay has drained; the daemon writes it when the shell exits.
func (c *Conn) ReadStatus() (int, error) {
	status, err := readUint32(c.uc)
	if err != nil {
		return 0, fmt.Errorf("read exit status: %w", err)
	}
	return int(status), nil
}

// Close closes the daemon connection.
func (c *Conn) Close() error {
	return c.uc.Close()
}

func boolToWire(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d", ErrBadFrame, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
