// Where: cli/internal/rules/embed.go
// What: Embed default mapping tables.
// Why: Ship a working rule set with the binary while allowing --mappings-dir overrides.
package rules

import "embed"

//go:embed defaults/*.yaml
var defaultsFS embed.FS
