// Package buildinfo derives a version string from Go build metadata.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of the current build: the module version
// for tagged builds (go install from a tag), a "dev-<hash>" pseudo
// version for builds from a checkout, "dev" when no VCS info is
// embedded, and "unknown" when build info cannot be read at all.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion(info)
}

func devVersion(info *debug.BuildInfo) string {
	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := fmt.Sprintf("dev-%s", revision)
	if modified {
		v += "-dirty"
	}
	return v
}
