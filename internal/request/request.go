// Package request defines the in-memory model of one elevation request and
// the helpers that build it from command-line input. A request is constructed
// once per invocation and is immutable afterwards.
package request

import (
	"log/slog"
	"os/user"
	"strconv"
	"strings"
)

// RootUID is the default target identity when no user is named.
const RootUID = 0

// ElevationRequest describes one ask to run a shell or command as another
// identity. The scalar fields travel on the wire as the packed record in
// internal/protocol; Shell and Command follow as length-prefixed strings.
type ElevationRequest struct {
	// UID is the target user id.
	UID uint32

	// Login requests a login shell.
	Login bool

	// KeepEnv preserves the caller's environment instead of resetting it.
	KeepEnv bool

	// MountMaster runs the shell in the global mount namespace rather
	// than the per-app one.
	MountMaster bool

	// Shell is the absolute path of the shell to spawn.
	Shell string

	// Command is the command passed to the shell with -c. Empty means an
	// interactive shell.
	Command string
}

// New returns a request targeting root with the given default shell and no
// command.
func New(defaultShell string) *ElevationRequest {
	return &ElevationRequest{
		UID:   RootUID,
		Shell: defaultShell,
	}
}

// ResolveUID turns a user name or numeric uid argument into a uid. The name
// is looked up first; a failed lookup falls back to parsing the argument as
// a number. Malformed input yields 0. That permissive fallback matches the
// historical client behavior; callers needing strict validation must check
// the argument themselves before building a request.
func ResolveUID(arg string, logger *slog.Logger) uint32 {
	if u, err := user.Lookup(arg); err == nil {
		if uid, err := strconv.ParseUint(u.Uid, 10, 32); err == nil {
			return uint32(uid)
		}
	}
	uid, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		if logger != nil {
			logger.Warn("unresolvable user argument, defaulting to uid 0",
				slog.String("arg", arg),
			)
		}
		return 0
	}
	return uint32(uid)
}

// JoinCommand concatenates the -c option's argument and every following
// argument into the single space-joined command string the daemon's shell
// receives. Once -c is seen, nothing after it is parsed as an option.
func JoinCommand(args []string) string {
	return strings.Join(args, " ")
}
