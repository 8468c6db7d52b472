// Package version exposes build metadata stamped at release time.
package version

// Overridden with -ldflags "-X ...". Defaults identify a local build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Human returns a single release identifier suitable for log lines.
func Human() string {
	return Version + " (" + Commit + ")"
}
