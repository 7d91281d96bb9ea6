// Where: cli/internal/update/detector.go
// What: Change detection between an upstream catalog and converted output.
// Why: Re-converting every app on every run is wasteful; content hashes
// pinpoint exactly which apps are new, changed, or gone.
package update

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
	"github.com/appbridge/cli/internal/hashing"
	"github.com/appbridge/cli/internal/meta"
)

// UpstreamApp is one app found in the upstream catalog.
type UpstreamApp struct {
	AppID       string
	ComposePath string
	ComposeHash string
}

// ConvertedApp is one previously converted package with a source-tracking
// record matching this converter's source format.
type ConvertedApp struct {
	AppID        string
	MetadataPath string
	UpstreamHash string
}

// UpdatedApp names an app whose upstream document changed since it was
// last converted.
type UpdatedApp struct {
	AppID   string `json:"app_id"`
	OldHash string `json:"old_hash"`
	NewHash string `json:"new_hash"`
}

// Detector compares the upstream catalog directory with the converted
// output directory. A missing directory on either side means zero apps on
// that side, never an error.
type Detector struct {
	UpstreamDir  string
	ConvertedDir string
}

// DetectChanges scans both trees and classifies every app id as new (only
// upstream), updated (both sides, hashes differ), or removed (only
// converted).
func (d *Detector) DetectChanges() (*Report, error) {
	upstream, err := d.scanUpstream()
	if err != nil {
		return nil, err
	}
	converted, err := d.scanConverted()
	if err != nil {
		return nil, err
	}

	report := &Report{Timestamp: time.Now().UTC()}
	for appID, up := range upstream {
		conv, ok := converted[appID]
		if !ok {
			report.NewApps = append(report.NewApps, appID)
			continue
		}
		if up.ComposeHash != conv.UpstreamHash {
			report.UpdatedApps = append(report.UpdatedApps, UpdatedApp{
				AppID:   appID,
				OldHash: conv.UpstreamHash,
				NewHash: up.ComposeHash,
			})
		}
	}
	for appID := range converted {
		if _, ok := upstream[appID]; !ok {
			report.RemovedApps = append(report.RemovedApps, appID)
		}
	}

	sort.Strings(report.NewApps)
	sort.Strings(report.RemovedApps)
	sort.Slice(report.UpdatedApps, func(i, j int) bool {
		return report.UpdatedApps[i].AppID < report.UpdatedApps[j].AppID
	})
	return report, nil
}

func (d *Detector) scanUpstream() (map[string]UpstreamApp, error) {
	apps := map[string]UpstreamApp{}
	entries, err := os.ReadDir(d.UpstreamDir)
	if err != nil {
		if os.IsNotExist(err) {
			return apps, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		composePath := filepath.Join(d.UpstreamDir, entry.Name(), casaos.ComposeFileName)
		hash, err := hashing.FileSHA256(composePath)
		if err != nil {
			// No source document, or unreadable; not an upstream app.
			continue
		}
		apps[entry.Name()] = UpstreamApp{
			AppID:       entry.Name(),
			ComposePath: composePath,
			ComposeHash: hash,
		}
	}
	return apps, nil
}

// scanConverted reads every converted package's metadata and keeps those
// whose source-tracking record declares this converter's format. Packages
// with unreadable or foreign metadata are skipped, not errors.
func (d *Detector) scanConverted() (map[string]ConvertedApp, error) {
	apps := map[string]ConvertedApp{}
	entries, err := os.ReadDir(d.ConvertedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return apps, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metadataPath := filepath.Join(d.ConvertedDir, entry.Name(), descriptor.MetadataFileName)
		payload, err := os.ReadFile(metadataPath)
		if err != nil {
			continue
		}
		var m descriptor.Metadata
		if err := yaml.Unmarshal(payload, &m); err != nil {
			continue
		}
		if m.SourceMetadata == nil || m.SourceMetadata.Type != meta.SourceFormat {
			continue
		}
		if !strings.HasPrefix(m.PackageName, meta.SourceFormat+"-") {
			continue
		}
		apps[m.SourceMetadata.AppID] = ConvertedApp{
			AppID:        m.SourceMetadata.AppID,
			MetadataPath: metadataPath,
			UpstreamHash: m.SourceMetadata.UpstreamHash,
		}
	}
	return apps, nil
}
