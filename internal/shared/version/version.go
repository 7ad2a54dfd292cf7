// Package version carries build metadata set through -ldflags.
package version

var (
	Version = "dev"
	Commit  = ""
)

// String formats the version for -version output.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
