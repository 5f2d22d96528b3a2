// Package version carries build metadata stamped in by ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// revision falls back to the VCS stamp `go build` embeds when ldflags left
// Commit unset.
func revision() string {
	if Commit != "none" && Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

// String is the banner printed by `dictum version`.
func String() string {
	commit := revision()
	if commit == "" {
		commit = "none"
	}
	return fmt.Sprintf("dictum %s (commit=%s, date=%s, go=%s %s/%s)",
		Version, commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short is the tag reported in status replies and logs.
func Short() string {
	if commit := revision(); commit != "" {
		return Version + "+" + commit
	}
	return Version
}
