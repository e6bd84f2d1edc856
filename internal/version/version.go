// Package version resolves the binary's version string.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is overridden at release time via -ldflags.
var Version = "0.1.0"

// Resolve returns the release version, annotated with VCS details when
// the binary was built from a checkout.
func Resolve() string {
	return resolveVersion(Version, debug.ReadBuildInfo)
}

func resolveVersion(base string, readBuildInfo func() (*debug.BuildInfo, bool)) string {
	if base == "" {
		base = "0.0.0"
	}

	info, ok := readBuildInfo()
	if !ok || info == nil {
		return base
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return base
	}

	suffix := shortRevision(revision)
	if dirty {
		suffix += "-dirty"
	}
	return base + "+" + suffix
}

func shortRevision(revision string) string {
	if len(revision) > 12 {
		return revision[:12]
	}
	return strings.TrimSpace(revision)
}
