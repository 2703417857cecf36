// ABOUTME: Version and product identification for the adaptive player
// ABOUTME: Reported in server/hello and by the CLIs' -version flags
package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.3.0"

const (
	Product      = "Adaptive Music Player"
	Manufacturer = "Resonate"
)
