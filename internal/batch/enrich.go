// Where: cli/internal/batch/enrich.go
// What: Metadata defaults for fields the source format cannot provide.
// Why: The downstream schema requires version, maintainer, license, tags,
// and architecture; converted apps must carry sensible placeholders.
package batch

import (
	"slices"

	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
)

const (
	defaultVersion      = "1.0.0"
	defaultMaintainerAt = "auto-converted@casaos.io"
	defaultLicense      = "Unknown"
	defaultArchitecture = "all"
	requiredRoleTag     = "role::container-app"
)

// EnrichMetadata fills the required fields the transformer leaves empty.
// The required role tag is always prepended when missing, even to tags the
// source declared itself.
func EnrichMetadata(m *descriptor.Metadata, app *casaos.App) {
	if m.Version == "" {
		m.Version = defaultVersion
	}
	if m.Maintainer == "" {
		developer := app.Developer
		if developer == "" {
			developer = "Unknown"
		}
		m.Maintainer = developer + " <" + defaultMaintainerAt + ">"
	}
	if m.License == "" {
		m.License = defaultLicense
	}
	if len(m.Tags) == 0 {
		m.Tags = slices.Clone(app.Tags)
	}
	if !slices.Contains(m.Tags, requiredRoleTag) {
		m.Tags = append([]string{requiredRoleTag}, m.Tags...)
	}
	if m.Architecture == "" {
		m.Architecture = defaultArchitecture
	}
}
