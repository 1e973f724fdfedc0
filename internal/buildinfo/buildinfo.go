// Package buildinfo exposes values injected with -ldflags "-X".
package buildinfo

import "go.uber.org/zap"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

const notAvailable = "N/A"

// Info is the resolved build metadata.
type Info struct {
	Version string
	Date    string
	Commit  string
}

func Get() Info {
	return Info{
		Version: orNA(BuildVersion),
		Date:    orNA(BuildDate),
		Commit:  orNA(BuildCommit),
	}
}

// Log writes the build metadata as a single startup entry.
func Log(logger *zap.SugaredLogger) {
	info := Get()
	logger.Infow("webhook benchmark starting",
		"version", info.Version,
		"date", info.Date,
		"commit", info.Commit,
	)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
