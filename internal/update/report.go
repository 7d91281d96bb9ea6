// Where: cli/internal/update/report.go
// What: Rendering for update detection results.
// Why: The same report feeds humans (markdown) and CI pipelines (JSON).
package update

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Report classifies every app id after one detection run. Computed once and
// immutable afterwards.
type Report struct {
	NewApps     []string     `json:"new_apps"`
	UpdatedApps []UpdatedApp `json:"updated_apps"`
	RemovedApps []string     `json:"removed_apps"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Empty reports whether no changes were detected.
func (r *Report) Empty() bool {
	return len(r.NewApps) == 0 && len(r.UpdatedApps) == 0 && len(r.RemovedApps) == 0
}

// Markdown renders the report as a human-readable summary.
func (r *Report) Markdown() string {
	header := fmt.Sprintf("# Update Report (%s)", r.Timestamp.Format("2006-01-02 15:04:05"))
	if r.Empty() {
		return header + "\n\nNo changes detected.\n"
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")

	if len(r.NewApps) > 0 {
		fmt.Fprintf(&b, "## New Apps (%d)\n\n", len(r.NewApps))
		for _, appID := range r.NewApps {
			fmt.Fprintf(&b, "- %s\n", appID)
		}
		b.WriteString("\n")
	}
	if len(r.UpdatedApps) > 0 {
		fmt.Fprintf(&b, "## Updated Apps (%d)\n\n", len(r.UpdatedApps))
		for _, app := range r.UpdatedApps {
			fmt.Fprintf(&b, "- %s (hash changed)\n", app.AppID)
		}
		b.WriteString("\n")
	}
	if len(r.RemovedApps) > 0 {
		fmt.Fprintf(&b, "## Removed Apps (%d)\n\n", len(r.RemovedApps))
		for _, appID := range r.RemovedApps {
			fmt.Fprintf(&b, "- %s\n", appID)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	if len(r.NewApps) > 0 {
		fmt.Fprintf(&b, "- %d apps ready to convert\n", len(r.NewApps))
	}
	if len(r.UpdatedApps) > 0 {
		fmt.Fprintf(&b, "- %d apps need re-conversion\n", len(r.UpdatedApps))
	}
	if len(r.RemovedApps) > 0 {
		fmt.Fprintf(&b, "- %d apps no longer in upstream\n", len(r.RemovedApps))
	}
	return b.String()
}

// JSON renders the report for machine consumers. Nil slices serialize as
// empty arrays so consumers never see null.
func (r *Report) JSON() ([]byte, error) {
	out := *r
	if out.NewApps == nil {
		out.NewApps = []string{}
	}
	if out.UpdatedApps == nil {
		out.UpdatedApps = []UpdatedApp{}
	}
	if out.RemovedApps == nil {
		out.RemovedApps = []string{}
	}
	return json.MarshalIndent(out, "", "  ")
}
