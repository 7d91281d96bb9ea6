// Where: cli/internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep product identity in one place for paths and env lookups.
package meta

const (
	// Project Identity
	AppName   = "appbridge"
	EnvPrefix = "APPBRIDGE"

	// Directory Layout
	StagingDir = ".assets-staging"

	// Source format handled by this build.
	SourceFormat = "casaos"
)
