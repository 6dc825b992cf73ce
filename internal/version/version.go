package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is set at build time with
	// -ldflags "-X github.com/hashicorp-forge/fragments/internal/version.Version=x.y.z".
	Version = "0.1.0"

	// GitCommit is set at build time.
	GitCommit = ""
)

// String returns the version with the VCS revision when known.
func String() string {
	commit := GitCommit
	if commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 8 {
					commit = s.Value[:8]
				}
			}
		}
	}
	if commit == "" {
		return fmt.Sprintf("fragments v%s", Version)
	}
	return fmt.Sprintf("fragments v%s (%s)", Version, commit)
}
