// Where: cli/internal/app/deps.go
// What: Injected dependencies for CLI command execution.
// Why: Keep command handlers testable without touching the network or the
// process environment.
package app

import (
	"context"
	"io"
)

// Dependencies holds all injected dependencies required for CLI command
// execution. Zero values fall back to production defaults inside Run.
type Dependencies struct {
	Out io.Writer
	// SyncUpstream clones or pulls the upstream catalog repository.
	// Injected so command tests never reach the network.
	SyncUpstream func(ctx context.Context, url, dir string) error
}
