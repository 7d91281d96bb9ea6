// Where: cli/internal/assets/manager.go
// What: Concurrent download manager for app icons and screenshots.
// Why: Asset retrieval needs retries, size caps, and format checks without
// ever failing the conversion that requested it.
package assets

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/appbridge/cli/internal/fileops"
	"github.com/appbridge/cli/internal/meta"
)

// Size ceilings. A file over its per-file cap is discarded; an app whose
// staged assets exceed the total cap loses all of them.
const (
	MaxIconSize       = 5 * 1024 * 1024
	MaxScreenshotSize = 10 * 1024 * 1024
	MaxTotalSize      = 50 * 1024 * 1024

	requestTimeout     = 30 * time.Second
	backoffBase        = time.Second
	maxRetries         = 3 // plus the initial attempt
	screenshotParallel = 5
	defaultExtension   = ".png"
	screenshotsDirName = "screenshots"
)

// Result reports what one DownloadAll call committed to the output tree.
// Warnings cover every asset that was skipped and why; they are never
// errors.
type Result struct {
	Icon        string
	Screenshots []string
	Warnings    []string
}

// Manager downloads assets for converted apps. Safe for concurrent use by
// multiple conversion jobs: every app stages and commits under its own
// app-id-named subdirectories.
type Manager struct {
	outputDir string
	client    *http.Client

	maxIcon       int64
	maxScreenshot int64
	maxTotal      int64
	retryBase     time.Duration
}

// NewManager creates a Manager writing beneath outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{
		outputDir:     outputDir,
		client:        &http.Client{Timeout: requestTimeout},
		maxIcon:       MaxIconSize,
		maxScreenshot: MaxScreenshotSize,
		maxTotal:      MaxTotalSize,
		retryBase:     backoffBase,
	}
}

// DownloadAll fetches the icon and all screenshots for one app. Everything
// lands in a staging directory first; only when the aggregate size is under
// the total cap is the set moved into the app's output directory. Over the
// cap, every staged file is deleted and a single summary warning recorded —
// partial asset sets are never committed.
func (m *Manager) DownloadAll(ctx context.Context, iconURL string, screenshotURLs []string, appID string) (*Result, error) {
	result := &Result{}

	stagingDir := filepath.Join(m.outputDir, meta.StagingDir, appID)
	if err := fileops.EnsureDir(stagingDir); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer fileops.RemoveDir(stagingDir)

	var stagedIcon string
	if iconURL != "" {
		stagedIcon = m.fetchIcon(ctx, iconURL, stagingDir, result)
	}
	stagedScreenshots := m.fetchScreenshots(ctx, screenshotURLs, stagingDir, result)

	var total int64
	for _, path := range append([]string{stagedIcon}, stagedScreenshots...) {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	if total > m.maxTotal {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Total asset size (%s) exceeds limit (%s); all assets discarded",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(m.maxTotal))))
		return result, nil
	}

	appDir := filepath.Join(m.outputDir, appID)
	if stagedIcon != "" {
		final := filepath.Join(appDir, filepath.Base(stagedIcon))
		if err := commit(stagedIcon, final); err != nil {
			return nil, err
		}
		result.Icon = final
	}
	for _, staged := range stagedScreenshots {
		final := filepath.Join(appDir, screenshotsDirName, filepath.Base(staged))
		if err := commit(staged, final); err != nil {
			return nil, err
		}
		result.Screenshots = append(result.Screenshots, final)
	}
	return result, nil
}

func (m *Manager) fetchIcon(ctx context.Context, url, stagingDir string, result *Result) string {
	payload, contentType, err := m.download(ctx, url, m.maxIcon)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to download icon from %s: %v", url, err))
		return ""
	}
	path := filepath.Join(stagingDir, "icon"+extensionFor(contentType, url))
	if err := fileops.WriteFile(path, payload); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to store icon from %s: %v", url, err))
		return ""
	}
	if err := validateImage(path); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Icon validation failed for %s: %v", url, err))
		os.Remove(path)
		return ""
	}
	return path
}

// fetchScreenshots downloads up to screenshotParallel screenshots at once.
// Each goroutine writes only its own slot, so the slices need no locking;
// failures surface as warnings after the group drains.
func (m *Manager) fetchScreenshots(ctx context.Context, urls []string, stagingDir string, result *Result) []string {
	if len(urls) == 0 {
		return nil
	}

	staged := make([]string, len(urls))
	warnings := make([]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(screenshotParallel)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			payload, contentType, err := m.download(gctx, url, m.maxScreenshot)
			if err != nil {
				warnings[i] = fmt.Sprintf("Failed to download screenshot from %s: %v", url, err)
				return nil
			}
			name := fmt.Sprintf("screenshot-%d%s", i+1, extensionFor(contentType, url))
			path := filepath.Join(stagingDir, name)
			if err := fileops.WriteFile(path, payload); err != nil {
				warnings[i] = fmt.Sprintf("Failed to store screenshot from %s: %v", url, err)
				return nil
			}
			if err := validateImage(path); err != nil {
				warnings[i] = fmt.Sprintf("Screenshot validation failed for %s: %v", url, err)
				os.Remove(path)
				return nil
			}
			staged[i] = path
			return nil
		})
	}
	g.Wait()

	var kept []string
	for i := range urls {
		if warnings[i] != "" {
			result.Warnings = append(result.Warnings, warnings[i])
		}
		if staged[i] != "" {
			kept = append(kept, staged[i])
		}
	}
	return kept
}

func commit(staged, final string) error {
	if err := fileops.EnsureDir(filepath.Dir(final)); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	if err := fileops.MoveFile(staged, final); err != nil {
		return fmt.Errorf("commit asset %s: %w", filepath.Base(final), err)
	}
	return nil
}
