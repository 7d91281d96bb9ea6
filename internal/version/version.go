// Where: cli/internal/version/version.go
// What: Build version string for the version command.
// Why: Binaries are identified by the VCS stamp the Go linker embeds, not
// by a hand-maintained version constant.
package version

import "runtime/debug"

const fallback = "dev"

// GetVersion derives the version from the binary's embedded build info: the
// short VCS revision, marked dirty when the tree had local modifications.
// Binaries built without VCS stamping report "dev".
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fallback
	}

	revision := ""
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return fallback
	}
	if dirty {
		return revision + " (dirty)"
	}
	return revision
}
