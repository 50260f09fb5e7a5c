// Package version holds build information. BuildDate and GoVersion are set
// with -ldflags "-X github.com/keshon/jukebox/internal/version.BuildDate=...".
package version

var (
	AppName        = "Jukebox"
	AppDescription = "Per-guild music queues for Discord voice channels"
	Version        = "dev"
	BuildDate      = ""
	GoVersion      = ""
)
