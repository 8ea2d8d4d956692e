// Package version provides build-time version information for the elevation client.
// Version, Code, Commit, and BuildTime are populated via ldflags during the build
// process. For development builds, default values are used.
package version

// Build information variables, set via ldflags at build time:
//
//	go build -ldflags "-X github.com/doughall/elevate/internal/version.Version=1.0.0 \
//	                   -X github.com/doughall/elevate/internal/version.Code=100 \
//	                   -X github.com/doughall/elevate/internal/version.Commit=abc123"
var (
	// Version is the semantic version of the client (e.g., "1.0.0", "dev").
	Version = "dev"

	// Code is the numeric version code printed by -V. Management tooling
	// compares this as an integer, so it must stay a plain decimal string.
	Code = "0"

	// Commit is the git commit hash from which the binary was built.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built (RFC3339 format).
	BuildTime = "unknown"
)

// String returns the version string printed by -v.
func String() string {
	return Version + ":ELEVATE"
}

// Info returns a formatted string with all version information.
func Info() string {
	return "elevate " + Version + " (commit: " + Commit + ", built: " + BuildTime + ")"
}
