// Where: cli/internal/app/app_test.go
// What: CLI dispatch tests.
// Why: Commands are the contract users script against; flag validation and
// exit codes must stay stable.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
)

func testDeps(out *bytes.Buffer) Dependencies {
	return Dependencies{Out: out}
}

func writeSourceApp(t *testing.T, dir, id string) {
	t.Helper()
	appDir := filepath.Join(dir, id)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := fmt.Sprintf(`
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
	if err := os.WriteFile(filepath.Join(appDir, casaos.ComposeFileName), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if code := Run([]string{"version"}, testDeps(&out)); code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	if out.Len() == 0 {
		t.Error("version output is empty")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if code := Run([]string{"frobnicate"}, testDeps(&out)); code == 0 {
		t.Error("unknown command must fail")
	}
}

func TestRunConvertSingle(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeSourceApp(t, sourceDir, "demo")

	var out bytes.Buffer
	code := Run([]string{"convert", filepath.Join(sourceDir, "demo"), "-o", outputDir}, testDeps(&out))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo", descriptor.MetadataFileName)); err != nil {
		t.Errorf("missing converted output: %v", err)
	}
}

func TestRunFlagsBindEnvironment(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeSourceApp(t, sourceDir, "demo")
	t.Setenv("APPBRIDGE_OUTPUT", outputDir)

	var out bytes.Buffer
	code := Run([]string{"convert", filepath.Join(sourceDir, "demo")}, testDeps(&out))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo", descriptor.MetadataFileName)); err != nil {
		t.Errorf("output flag did not bind its environment variable: %v", err)
	}
}

func TestRunConvertSingleFailure(t *testing.T) {
	sourceDir := t.TempDir()
	// No compose file in the directory.
	var out bytes.Buffer
	code := Run([]string{"convert", sourceDir, "-o", t.TempDir()}, testDeps(&out))
	if code == 0 {
		t.Error("conversion of an empty directory must fail")
	}
	if !strings.Contains(out.String(), "Error:") {
		t.Errorf("fatal error not surfaced: %s", out.String())
	}
}

func TestRunConvertBatch(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeSourceApp(t, sourceDir, "alpha")
	writeSourceApp(t, sourceDir, "beta")

	var out bytes.Buffer
	code := Run([]string{"convert", sourceDir, "--batch", "--workers", "2", "-o", outputDir}, testDeps(&out))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	for _, id := range []string{"alpha", "beta"} {
		if _, err := os.Stat(filepath.Join(outputDir, id, descriptor.MetadataFileName)); err != nil {
			t.Errorf("missing output for %s: %v", id, err)
		}
	}
}

func TestRunConvertSyncValidation(t *testing.T) {
	var out bytes.Buffer
	if code := Run([]string{"convert", t.TempDir(), "--sync"}, testDeps(&out)); code == 0 {
		t.Error("--sync without --batch must fail")
	}

	out.Reset()
	if code := Run([]string{"convert", t.TempDir(), "--sync", "--batch"}, testDeps(&out)); code == 0 {
		t.Error("--sync without --upstream-url must fail")
	}
}

func TestRunConvertSyncUsesInjectedFetcher(t *testing.T) {
	sourceDir := t.TempDir()
	writeSourceApp(t, sourceDir, "demo")

	synced := false
	deps := Dependencies{
		Out: &bytes.Buffer{},
		SyncUpstream: func(_ context.Context, url, dir string) error {
			synced = true
			if url != "https://example.com/apps.git" || dir != sourceDir {
				t.Errorf("sync called with %q %q", url, dir)
			}
			return nil
		},
	}
	code := Run([]string{
		"convert", sourceDir, "--batch", "--sync",
		"--upstream-url", "https://example.com/apps.git",
		"-o", t.TempDir(),
	}, deps)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !synced {
		t.Error("injected fetcher was not used")
	}
}

func TestRunConvertSyncSkipsUpToDate(t *testing.T) {
	sourceDir := t.TempDir()
	outputDir := t.TempDir()
	writeSourceApp(t, sourceDir, "demo")

	// First pass records the upstream hash in the converted metadata.
	var out bytes.Buffer
	code := Run([]string{
		"convert", sourceDir, "--batch",
		"--upstream-url", "https://example.com/apps.git",
		"-o", outputDir,
	}, testDeps(&out))
	if code != 0 {
		t.Fatalf("initial conversion failed: %s", out.String())
	}

	out.Reset()
	deps := Dependencies{
		Out:          &out,
		SyncUpstream: func(context.Context, string, string) error { return nil },
	}
	code = Run([]string{
		"convert", sourceDir, "--batch", "--sync",
		"--upstream-url", "https://example.com/apps.git",
		"-o", outputDir,
	}, deps)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("unchanged catalog should short-circuit: %s", out.String())
	}
}

func TestRunUpdatesJSON(t *testing.T) {
	upstreamDir := t.TempDir()
	writeSourceApp(t, upstreamDir, "fresh")

	var out bytes.Buffer
	code := Run([]string{"updates", upstreamDir, t.TempDir(), "--json"}, testDeps(&out))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	var report map[string]any
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	newApps, ok := report["new_apps"].([]any)
	if !ok || len(newApps) != 1 || newApps[0] != "fresh" {
		t.Errorf("new_apps = %v", report["new_apps"])
	}
}

func TestRunUpdatesMarkdown(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"updates", t.TempDir(), t.TempDir()}, testDeps(&out))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "No changes detected.") {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunUpdatesFetchRequiresURL(t *testing.T) {
	var out bytes.Buffer
	if code := Run([]string{"updates", t.TempDir(), t.TempDir(), "--fetch"}, testDeps(&out)); code == 0 {
		t.Error("--fetch without --upstream-url must fail")
	}
}
