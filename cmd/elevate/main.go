// Elevation client - Entry Point
//
// This is the unprivileged client of the elevation daemon. It builds an
// elevation request from the command line, connects to the daemon's Unix
// socket, transfers the request and the standard stream descriptors, and
// relays terminal I/O through a pseudo-terminal until the daemon-spawned
// shell exits. The shell's exit status becomes this process's own.
//
// Lifecycle:
//  1. Parse su-compatible options
//  2. Load client configuration (socket path, default shell, log level)
//  3. Probe which standard streams are real terminals
//  4. Allocate a pseudo-terminal if any stream is a terminal
//  5. Handshake with the daemon, transfer descriptors
//  6. On admission, relay terminal I/O until the remote shell exits
//  7. Exit with the remote shell's status
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/doughall/elevate/internal/client"
	"github.com/doughall/elevate/internal/config"
	"github.com/doughall/elevate/internal/logging"
	"github.com/doughall/elevate/internal/protocol"
	"github.com/doughall/elevate/internal/request"
	"github.com/doughall/elevate/internal/version"
)

// Exit codes. A completed session exits with the remote shell's own status
// instead.
const (
	exitDenied  = 1
	exitFailure = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elevate: %v\n", err)
		fmt.Fprint(os.Stderr, usageText())
		return exitFailure
	}

	switch {
	case opts.showHelp:
		fmt.Print(usageText())
		return 0
	case opts.showVersion:
		fmt.Println(version.String())
		return 0
	case opts.showVersionCode:
		fmt.Println(version.Code)
		return 0
	}

	cfg, err := config.Load(config.DefaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elevate: %v\n", err)
		return exitFailure
	}

	logger := logging.SetupLogger(cfg.LogLevel)
	logger.Debug("starting", slog.String("build", version.Info()))

	req := request.New(cfg.DefaultShell)
	req.Login = opts.login
	req.KeepEnv = opts.keepEnv
	req.MountMaster = opts.mountMaster
	if opts.shell != "" {
		req.Shell = opts.shell
	}
	if opts.hasCommand {
		req.Command = opts.command
	}
	if opts.userArg != "" {
		req.UID = request.ResolveUID(opts.userArg, logger)
	}

	status, err := client.New(cfg.SocketPath, logger).Run(req, client.StdStreams())
	if err != nil {
		if errors.Is(err, protocol.ErrDenied) {
			fmt.Fprintln(os.Stderr, "Permission denied")
			return exitDenied
		}
		fmt.Fprintf(os.Stderr, "elevate: %v\n", err)
		return exitFailure
	}
	return status
}

func versionLine() string {
	return version.String()
}
