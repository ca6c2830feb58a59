// Package version holds build metadata injected at link time.
package version

// Set via -ldflags at release builds.
var (
	Version = "0.1.0"
	Commit  = "unknown"
)

// Resolve returns the version string, with the commit appended for
// non-release builds.
func Resolve() string {
	if Version == "" {
		return "0.0.0"
	}
	if Commit != "" && Commit != "unknown" {
		return Version + "+" + Commit
	}
	return Version
}
