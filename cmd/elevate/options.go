// options.go parses the su-compatible command-line surface into the fields
// that shape the wire request.
package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/doughall/elevate/internal/request"
)

// options is the parsed command line for one invocation.
type options struct {
	command     string
	hasCommand  bool
	login       bool
	keepEnv     bool
	mountMaster bool
	shell       string
	userArg     string

	showHelp        bool
	showVersion     bool
	showVersionCode bool
}

var errMissingCommand = errors.New("option -c requires an argument")

// parseArgs parses the argument list (without the program name).
//
// Two quirks predate standard option parsing and are handled up front:
// legacy two-character forms are rewritten (-mm to -M, -cn to -z), and -c
// captures its argument plus every following argument as one space-joined
// command, after which no further option parsing occurs.
func parseArgs(args []string) (*options, error) {
	opts := &options{}

	rewritten := make([]string, len(args))
	for i, arg := range args {
		switch arg {
		case "-mm":
			rewritten[i] = "-M"
		case "-cn":
			rewritten[i] = "-z"
		default:
			rewritten[i] = arg
		}
	}

	// All spellings getopt accepts: separate (-c CMD, --command CMD) and
	// attached (-cCMD, --command=CMD).
	head := rewritten
	for i, arg := range rewritten {
		var captured []string
		switch {
		case arg == "-c" || arg == "--command":
			if i == len(rewritten)-1 {
				return nil, errMissingCommand
			}
			captured = rewritten[i+1:]
		case strings.HasPrefix(arg, "--command="):
			captured = append([]string{strings.TrimPrefix(arg, "--command=")}, rewritten[i+1:]...)
		case strings.HasPrefix(arg, "-c") && len(arg) > 2 && !strings.HasPrefix(arg, "--"):
			captured = append([]string{arg[2:]}, rewritten[i+1:]...)
		default:
			continue
		}
		opts.command = request.JoinCommand(captured)
		opts.hasCommand = true
		head = rewritten[:i]
		break
	}

	fs := pflag.NewFlagSet("elevate", pflag.ContinueOnError)
	fs.Usage = func() {} // caller prints the usage text
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	var keepShort, keepLong bool
	var context string
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "display help")
	fs.BoolVarP(&opts.login, "login", "l", false, "pretend the shell to be a login shell")
	fs.BoolVarP(&keepLong, "preserve-environment", "p", false, "preserve the entire environment")
	fs.BoolVarP(&keepShort, "keep-environment", "m", false, "alias for --preserve-environment")
	fs.StringVarP(&opts.shell, "shell", "s", "", "use SHELL instead of the default shell")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "display version number")
	fs.BoolVarP(&opts.showVersionCode, "version-code", "V", false, "display version code")
	fs.StringVarP(&context, "context", "z", "", "accepted and ignored, legacy support")
	fs.BoolVarP(&opts.mountMaster, "mount-master", "M", false, "force run in the global mount namespace")
	_ = fs.MarkHidden("keep-environment")
	_ = fs.MarkHidden("version-code")

	if err := fs.Parse(head); err != nil {
		return nil, err
	}
	opts.keepEnv = keepShort || keepLong

	positionals := fs.Args()
	if len(positionals) > 0 && positionals[0] == "-" {
		opts.login = true
		positionals = positionals[1:]
	}
	if len(positionals) > 0 {
		opts.userArg = positionals[0]
	}
	// Further positionals are accepted and ignored, as ever.

	return opts, nil
}

// usageText is the -h output, written to stderr on usage errors.
func usageText() string {
	return fmt.Sprintf(`elevate %s

Usage: elevate [options] [-] [user [argument...]]

Options:
  -c, --command COMMAND         pass COMMAND to the invoked shell
  -h, --help                    display this help message and exit
  -, -l, --login                pretend the shell to be a login shell
  -m, -p,
  --preserve-environment        preserve the entire environment
  -s, --shell SHELL             use SHELL instead of the default shell
  -v, --version                 display version number and exit
  -V                            display version code and exit
  -mm, -M,
  --mount-master                force run in the global mount namespace
`, versionLine())
}
