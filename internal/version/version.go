// Package version holds the build version, set at link time with
// -ldflags "-X github.com/sergeknystautas/gitviz/internal/version.Version=1.2.3".
package version

// Version is "dev" for builds from source.
var Version = "dev"

// IsDev reports whether this is an unversioned build.
func IsDev() bool {
	return Version == "" || Version == "dev"
}
