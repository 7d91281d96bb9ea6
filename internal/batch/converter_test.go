// Where: cli/internal/batch/converter_test.go
// What: Batch orchestrator tests.
// Why: Continue-on-error and count reconciliation are the batch contract.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
	"github.com/appbridge/cli/internal/meta"
	"github.com/appbridge/cli/internal/rules"
	"github.com/appbridge/cli/internal/transform"
)

func testTransformer(t *testing.T) *transform.Transformer {
	t.Helper()
	tables, err := rules.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return transform.New(tables, meta.SourceFormat)
}

func writeApp(t *testing.T, sourceDir, id, content string) {
	t.Helper()
	dir := filepath.Join(sourceDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, casaos.ComposeFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func validApp(id string) string {
	return fmt.Sprintf(`
name: %s
services:
  %s:
    image: example/%s:1.2.3
    environment:
      TZ: UTC
x-casaos:
  category: Utilities
  tagline:
    en_us: A converted app
  description:
    en_us: Longer description.
`, id, id, id)
}

func TestNewConverterWorkerValidation(t *testing.T) {
	if _, err := NewConverter(testTransformer(t), -1); err == nil {
		t.Error("negative worker count must fail")
	}
	c, err := NewConverter(testTransformer(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.workers < 1 {
		t.Errorf("default workers = %d", c.workers)
	}
}

func TestDiscoverAppsSorted(t *testing.T) {
	sourceDir := t.TempDir()
	writeApp(t, sourceDir, "zebra", validApp("zebra"))
	writeApp(t, sourceDir, "alpha", validApp("alpha"))
	// A directory without a source document is not an app.
	if err := os.MkdirAll(filepath.Join(sourceDir, "not-an-app"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := DiscoverApps(sourceDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 {
		t.Fatalf("discovered %d apps, want 2", len(dirs))
	}
	if filepath.Base(dirs[0]) != "alpha" || filepath.Base(dirs[1]) != "zebra" {
		t.Errorf("discovery not sorted: %v", dirs)
	}
}

func TestDiscoverAppsMissingSource(t *testing.T) {
	_, err := DiscoverApps(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("missing source directory must fail discovery")
	}
	// The underlying cause stays inspectable; a permission error must not be
	// reported as a missing directory.
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("stat failure not wrapped: %v", err)
	}
}

func TestRunEmptySourceIsSuccess(t *testing.T) {
	converter, err := NewConverter(testTransformer(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	result, err := converter.Run(context.Background(), Options{
		SourceDir: t.TempDir(),
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("empty batch must succeed: %v", err)
	}
	if result.Total != 0 || result.SuccessCount != 0 || result.FailureCount != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunOnlyFilter(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeApp(t, sourceDir, "alpha", validApp("alpha"))
	writeApp(t, sourceDir, "beta", validApp("beta"))
	writeApp(t, sourceDir, "gamma", validApp("gamma"))

	converter, err := NewConverter(testTransformer(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	result, err := converter.Run(context.Background(), Options{
		SourceDir: sourceDir,
		OutputDir: outputDir,
		Only:      []string{"beta", "no-such-app"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Total != 1 || result.SuccessCount != 1 {
		t.Errorf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "beta", descriptor.MetadataFileName)); err != nil {
		t.Errorf("missing filtered output: %v", err)
	}
	for _, id := range []string{"alpha", "gamma"} {
		if _, err := os.Stat(filepath.Join(outputDir, id)); err == nil {
			t.Errorf("%s converted despite the filter", id)
		}
	}
}

func TestRunContinueOnError(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()

	writeApp(t, sourceDir, "alpha", validApp("alpha"))
	writeApp(t, sourceDir, "beta", "name: [unclosed")
	writeApp(t, sourceDir, "gamma", validApp("gamma"))
	writeApp(t, sourceDir, "delta", "name: delta\n") // missing services and metadata

	converter, err := NewConverter(testTransformer(t), 2)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var completed []Status
	result, err := converter.Run(context.Background(), Options{
		SourceDir: sourceDir,
		OutputDir: outputDir,
		Progress: func(job *Job) {
			mu.Lock()
			completed = append(completed, job.Status)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Total != 4 {
		t.Errorf("total = %d, want 4", result.Total)
	}
	if result.SuccessCount != 2 || result.FailureCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", result.SuccessCount, result.FailureCount)
	}
	if result.SuccessCount+result.FailureCount != result.Total {
		t.Error("counts do not reconcile with total")
	}
	if len(result.Errors) != result.FailureCount {
		t.Errorf("errors = %d, want %d", len(result.Errors), result.FailureCount)
	}
	if len(completed) != 4 {
		t.Errorf("progress callback ran %d times, want 4", len(completed))
	}

	for _, id := range []string{"alpha", "gamma"} {
		if _, err := os.Stat(filepath.Join(outputDir, id, descriptor.MetadataFileName)); err != nil {
			t.Errorf("missing output for %s: %v", id, err)
		}
	}
	for _, id := range []string{"beta", "delta"} {
		if _, err := os.Stat(filepath.Join(outputDir, id)); err == nil {
			t.Errorf("failed app %s must not produce output", id)
		}
	}
}

func TestRunCancellationStopsDispatch(t *testing.T) {
	sourceDir := t.TempDir()
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
	for _, id := range ids {
		writeApp(t, sourceDir, id, validApp(id))
	}

	converter, err := NewConverter(testTransformer(t), 1)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result, err := converter.Run(ctx, Options{
		SourceDir: sourceDir,
		OutputDir: t.TempDir(),
		// Cancel after the first completion: the job in flight finishes and
		// counts, but nothing new is dispatched.
		Progress: func(*Job) { cancel() },
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Total == 0 {
		t.Fatal("the running job must finish and be counted")
	}
	if result.Total >= len(ids) {
		t.Errorf("cancellation did not stop dispatch: total = %d", result.Total)
	}
	if result.SuccessCount+result.FailureCount != result.Total {
		t.Errorf("counts do not reconcile: %+v", result)
	}
}

func TestRunPanickingProgressCallback(t *testing.T) {
	sourceDir := t.TempDir()
	writeApp(t, sourceDir, "alpha", validApp("alpha"))

	converter, err := NewConverter(testTransformer(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	result, err := converter.Run(context.Background(), Options{
		SourceDir: sourceDir,
		OutputDir: t.TempDir(),
		Progress:  func(*Job) { panic("boom") },
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Total != 1 || result.SuccessCount != 1 {
		t.Errorf("aggregate corrupted by callback panic: %+v", result)
	}
}

func TestEnrichMetadata(t *testing.T) {
	app := &casaos.App{Developer: "Acme", Tags: []string{"custom"}}
	m := &descriptor.Metadata{}
	EnrichMetadata(m, app)

	if m.Version != "1.0.0" {
		t.Errorf("version = %q", m.Version)
	}
	if m.Maintainer != "Acme <auto-converted@casaos.io>" {
		t.Errorf("maintainer = %q", m.Maintainer)
	}
	if m.License != "Unknown" {
		t.Errorf("license = %q", m.License)
	}
	if m.Architecture != "all" {
		t.Errorf("architecture = %q", m.Architecture)
	}
	if len(m.Tags) != 2 || m.Tags[0] != "role::container-app" || m.Tags[1] != "custom" {
		t.Errorf("tags = %v", m.Tags)
	}

	// Existing values survive enrichment.
	m2 := &descriptor.Metadata{Version: "2.0.0", Tags: []string{"role::container-app"}}
	EnrichMetadata(m2, &casaos.App{})
	if m2.Version != "2.0.0" {
		t.Errorf("version overwritten: %q", m2.Version)
	}
	if len(m2.Tags) != 1 {
		t.Errorf("role tag duplicated: %v", m2.Tags)
	}
}
