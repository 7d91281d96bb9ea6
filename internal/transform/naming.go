// Where: cli/internal/transform/naming.go
// What: Package-name derivation from source app names.
// Why: Converted packages need stable, Debian-compatible names regardless of
// how the source catalog spells the app.
package transform

import (
	"fmt"
	"regexp"
	"strings"
)

const packageSuffix = "container"

var (
	nonNameChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// NormalizeID derives a package-safe identifier from an app name or
// directory name: lowercase, every non-alphanumeric run collapsed to a
// single hyphen, edge hyphens trimmed. The derivation is deterministic; an
// input that normalizes to nothing is an error.
func NormalizeID(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("cannot derive app id from empty name")
	}
	id := strings.ToLower(name)
	id = nonNameChars.ReplaceAllString(id, "-")
	id = hyphenRuns.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if id == "" {
		return "", fmt.Errorf("cannot derive app id from %q: empty after normalization", name)
	}
	return id, nil
}

// PackageName wraps a normalized app id with the source prefix and the
// fixed container suffix: <prefix>-<id>-container.
func PackageName(appID, prefix string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, appID, packageSuffix)
	return strings.Join(parts, "-")
}
