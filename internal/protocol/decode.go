package protocol

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// WireRequest is the daemon-side view of one decoded elevation request.
// Used by the daemon and by the client's protocol tests.
type WireRequest struct {
	UID         uint32
	Login       bool
	KeepEnv     bool
	MountMaster bool
	Shell       string
	Command     string
	SlavePath   string
}

// ReadWireRequest decodes the request tag, the packed scalar record, and
// the three strings from the peer.
func ReadWireRequest(uc *net.UnixConn) (*WireRequest, error) {
	tag, err := readUint32(uc)
	if err != nil {
		return nil, fmt.Errorf("read request tag: %w", err)
	}
	if tag != TagSuperuser {
		return nil, fmt.Errorf("%w: unexpected request tag %d", ErrBadFrame, tag)
	}

	var req WireRequest
	var record [4]uint32
	for i := range record {
		record[i], err = readUint32(uc)
		if err != nil {
			return nil, fmt.Errorf("read request record: %w", err)
		}
	}
	req.UID = record[0]
	req.Login = record[1] != 0
	req.KeepEnv = record[2] != 0
	req.MountMaster = record[3] != 0

	for _, dst := range []*string{&req.Shell, &req.Command, &req.SlavePath} {
		s, err := readString(uc)
		if err != nil {
			return nil, fmt.Errorf("read request string: %w", err)
		}
		*dst = s
	}
	return &req, nil
}

// RecvStream receives one stream handoff. Returns the transferred file for
// a Direct handoff, or nil for a Substitute (the daemon then opens the
// pseudo-terminal slave for that stream).
func RecvStream(uc *net.UnixConn) (*os.File, error) {
	payload := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))
	_, oobn, _, _, err := uc.ReadMsgUnix(payload, oob)
	if err != nil {
		return nil, fmt.Errorf("receive stream descriptor: %w", err)
	}
	if oobn == 0 {
		return nil, nil
	}
	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, fmt.Errorf("%w: parse control message: %v", ErrBadFrame, err)
	}
	for _, msg := range msgs {
		fds, err := unix.ParseUnixRights(&msg)
		if err != nil || len(fds) == 0 {
			continue
		}
		return os.NewFile(uintptr(fds[0]), "stream"), nil
	}
	return nil, nil
}
