// Where: cli/internal/app/updates.go
// What: The updates command: upstream change detection.
// Why: Let CI decide which apps need re-conversion before running a batch.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/appbridge/cli/internal/update"
	"github.com/appbridge/cli/internal/upstream"
)

func runUpdates(cli CLI, deps Dependencies, out io.Writer) int {
	cmd := cli.Updates

	if cmd.Fetch {
		if cmd.UpstreamURL == "" {
			return exitWithError(out, fmt.Errorf("--fetch requires --upstream-url"))
		}
		syncUpstream := deps.SyncUpstream
		if syncUpstream == nil {
			syncUpstream = upstream.Sync
		}
		if err := syncUpstream(context.Background(), cmd.UpstreamURL, cmd.Upstream); err != nil {
			return exitWithError(out, err)
		}
	}

	detector := &update.Detector{
		UpstreamDir:  cmd.Upstream,
		ConvertedDir: cmd.Converted,
	}
	report, err := detector.DetectChanges()
	if err != nil {
		return exitWithError(out, err)
	}

	if cmd.JSON {
		payload, err := report.JSON()
		if err != nil {
			return exitWithError(out, err)
		}
		fmt.Fprintln(out, string(payload))
		return 0
	}
	fmt.Fprint(out, report.Markdown())
	return 0
}
