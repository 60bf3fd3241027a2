// Package version carries build metadata for the stalign binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Set with -ldflags "-X github.com/Sumatoshi-tech/stalign/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Version and Commit from the embedded build info
// when they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the version line printed by "stalign version".
func String() string {
	return fmt.Sprintf("stalign %s (commit: %s, built: %s)", Version, Commit, Date)
}
