package version

import "fmt"

// Set at build time with -ldflags "-X rawhttpd/internal/version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

func GetVersion() string {
	return fmt.Sprintf("rawhttpd %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// ServerToken is the product token sent in the Server response header.
func ServerToken() string {
	return "rawhttpd/" + Version
}
