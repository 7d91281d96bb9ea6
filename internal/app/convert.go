// Where: cli/internal/app/convert.go
// What: The convert command: single-app and batch conversion.
// Why: Wire the parse-transform-write pipeline behind the CLI surface,
// keeping batch failures as report lines instead of exits.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/appbridge/cli/internal/assets"
	"github.com/appbridge/cli/internal/batch"
	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
	"github.com/appbridge/cli/internal/meta"
	"github.com/appbridge/cli/internal/rules"
	"github.com/appbridge/cli/internal/transform"
	"github.com/appbridge/cli/internal/ui"
	"github.com/appbridge/cli/internal/update"
	"github.com/appbridge/cli/internal/upstream"
)

func runConvert(cli CLI, deps Dependencies, out io.Writer) int {
	cmd := cli.Convert
	console := ui.New(out)

	if cmd.Sync && !cmd.Batch {
		return exitWithError(out, fmt.Errorf("--sync requires --batch"))
	}
	if cmd.Sync && cmd.UpstreamURL == "" {
		return exitWithError(out, fmt.Errorf("--sync requires --upstream-url"))
	}

	tables, err := rules.Load(cmd.MappingsDir)
	if err != nil {
		return exitWithError(out, err)
	}
	transformer := transform.New(tables, meta.SourceFormat)

	ctx := context.Background()
	var only []string
	if cmd.Sync {
		syncUpstream := deps.SyncUpstream
		if syncUpstream == nil {
			syncUpstream = upstream.Sync
		}
		console.Info("Syncing upstream catalog")
		if err := syncUpstream(ctx, cmd.UpstreamURL, cmd.Source); err != nil {
			return exitWithError(out, err)
		}

		// Detection pre-pass: only new and changed apps get converted.
		detector := &update.Detector{UpstreamDir: cmd.Source, ConvertedDir: cmd.Output}
		report, err := detector.DetectChanges()
		if err != nil {
			return exitWithError(out, err)
		}
		only = append(only, report.NewApps...)
		for _, updated := range report.UpdatedApps {
			only = append(only, updated.AppID)
		}
		if len(only) == 0 {
			console.Success("Converted output is up to date")
			return 0
		}
		console.Info(fmt.Sprintf("%d apps need conversion", len(only)))
	}

	if cmd.Batch {
		return runConvertBatch(ctx, cmd, transformer, console, out, only)
	}
	return runConvertSingle(ctx, cmd, transformer, console, out)
}

// runConvertSingle converts one app directory and surfaces any fatal error
// directly, unlike the batch path which records it.
func runConvertSingle(ctx context.Context, cmd ConvertCmd, transformer *transform.Transformer, console *ui.Console, out io.Writer) int {
	composeFile := filepath.Join(cmd.Source, casaos.ComposeFileName)

	app, warnings, err := casaos.ParseFile(composeFile)
	if err != nil {
		return exitWithError(out, err)
	}
	for _, warning := range warnings {
		console.Warn(warning)
	}

	d, err := transformer.Transform(app, transform.Source{
		FilePath: composeFile,
		URL:      cmd.UpstreamURL,
	})
	if err != nil {
		return exitWithError(out, err)
	}
	batch.EnrichMetadata(&d.Metadata, app)

	appDir := filepath.Join(cmd.Output, app.ID)
	if err := descriptor.NewWriter(appDir).Write(d); err != nil {
		return exitWithError(out, err)
	}

	if cmd.DownloadAssets {
		result, err := assets.NewManager(cmd.Output).DownloadAll(ctx, app.Icon, app.Screenshots, app.ID)
		if err != nil {
			console.Warn(fmt.Sprintf("Asset download failed: %v", err))
		} else {
			for _, warning := range result.Warnings {
				console.Warn(warning)
			}
		}
	}

	console.Success(fmt.Sprintf("Converted %s -> %s", app.ID, appDir))
	return 0
}

func runConvertBatch(ctx context.Context, cmd ConvertCmd, transformer *transform.Transformer, console *ui.Console, out io.Writer, only []string) int {
	converter, err := batch.NewConverter(transformer, cmd.Workers)
	if err != nil {
		return exitWithError(out, err)
	}

	console.Header("📦", "Converting apps:")
	result, err := converter.Run(ctx, batch.Options{
		SourceDir:      cmd.Source,
		OutputDir:      cmd.Output,
		DownloadAssets: cmd.DownloadAssets,
		UpstreamURL:    cmd.UpstreamURL,
		Only:           only,
		Progress: func(job *batch.Job) {
			console.ItemPlain(fmt.Sprintf("[%d/%d] %s: %s", job.Index, job.Total, job.AppID, job.Status))
		},
	})
	if err != nil {
		return exitWithError(out, err)
	}

	console.Item("Total", result.Total)
	console.Item("Succeeded", result.SuccessCount)
	console.Item("Failed", result.FailureCount)
	console.Item("Elapsed", result.Elapsed.Round(10*time.Millisecond))
	for _, e := range result.Errors {
		console.Warn(fmt.Sprintf("%s: %s", e.AppID, e.Message))
	}

	if result.FailureCount > 0 {
		console.Warn(fmt.Sprintf("%d of %d apps failed", result.FailureCount, result.Total))
		return 1
	}
	console.Success(fmt.Sprintf("Converted %d apps", result.SuccessCount))
	return 0
}
