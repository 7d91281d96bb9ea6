// Where: cli/internal/transform/version.go
// What: Version extraction from container image tags.
// Why: The source format carries no package version; the image tag of the
// primary service is the only version signal available.
package transform

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/distribution/reference"
)

// Tags that name a moving branch rather than a release.
var skipTags = map[string]struct{}{
	"latest":  {},
	"main":    {},
	"master":  {},
	"stable":  {},
	"develop": {},
	"dev":     {},
	"nightly": {},
	"edge":    {},
}

// Suffixes after the first hyphen that mark a pre-release rather than a
// build variant. Pre-releases sort before the release in Debian ordering
// when joined with a tilde.
var prereleaseKeywords = []string{"rc", "beta", "alpha", "pre", "dev"}

// versionShape mirrors the package metadata schema's version pattern so
// only values the downstream validator accepts are ever emitted.
var versionShape = regexp.MustCompile(`^[0-9]+\.[0-9]+(\.[0-9]+)?(~[a-z0-9.]+)?(-[0-9]+)?$`)

// VersionFromImage extracts a package version from a container image
// reference, or returns an empty string when the tag carries no usable
// version (no tag, a branch tag, or a shape the metadata schema rejects).
//
//	linuxserver/sonarr:4.0.15      -> 4.0.15
//	tailscale/tailscale:v1.90.8    -> 1.90.8
//	app:1.2.3-rc1                  -> 1.2.3~rc1
//	app:1.2.3-alpine               -> 1.2.3
//	ghcr.io/app:2024.10-1          -> 2024.10-1
//	homebridge/homebridge:latest   -> ""
func VersionFromImage(image string) string {
	ref, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return ""
	}
	tagged, ok := ref.(reference.Tagged)
	if !ok {
		return ""
	}
	tag := tagged.Tag()

	if _, skip := skipTags[strings.ToLower(tag)]; skip {
		return ""
	}
	if len(tag) > 1 && tag[0] == 'v' && unicode.IsDigit(rune(tag[1])) {
		tag = tag[1:]
	}

	if base, suffix, found := strings.Cut(tag, "-"); found {
		suffixLower := strings.ToLower(suffix)
		switch {
		case hasPrereleaseSuffix(suffixLower):
			tag = base + "~" + suffixLower
		case suffix != "" && unicode.IsDigit(rune(suffix[0])):
			// Numeric suffix is a revision, keep it.
		default:
			// Build variant like -alpine or -ls123, drop it.
			tag = base
		}
	}

	if !versionShape.MatchString(tag) {
		return ""
	}
	return tag
}

func hasPrereleaseSuffix(suffix string) bool {
	for _, keyword := range prereleaseKeywords {
		if strings.HasPrefix(suffix, keyword) {
			return true
		}
	}
	return false
}
