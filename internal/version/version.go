package version

import "runtime/debug"

// Set at build time via -ldflags "-X github.com/jarv/justread/internal/version.GitHash=..."
var (
	GitHash = "dev"
	Version = ""
)

// GetVersion returns the release version, falling back to the module
// version recorded by `go install`, then to the git hash.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return GitHash
}

// GetUserAgent returns the user agent string for HTTP requests
func GetUserAgent() string {
	return "JustRead/" + GetVersion() + " (+https://github.com/jarv/justread)"
}
