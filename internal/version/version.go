// Package version holds the build identity of the backup browser.
package version

// Overridden at link time, e.g.
// -ldflags "-X github.com/pandeptwidyaop/nodered-backups/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info is the body of GET /api/version.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}
}
