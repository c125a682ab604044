// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// IsDev reports whether this is an unreleased development build.
// Dev builds never self-update.
func IsDev() bool {
	return Version == "dev"
}
