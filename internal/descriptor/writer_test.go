// Where: cli/internal/descriptor/writer_test.go
// What: Output writer and schema validation tests.
// Why: Only schema-accepted packages may reach the output tree, and no
// vendor extension key may survive into the written compose file.
package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"sigs.k8s.io/yaml"
)

func validDescriptor() *Descriptor {
	return &Descriptor{
		Metadata: Metadata{
			Name:          "Jellyfin",
			PackageName:   "casaos-jellyfin-container",
			Version:       "10.9.7",
			Description:   "The Free Software Media System",
			DebianSection: "video",
			Maintainer:    "jellyfin <auto-converted@casaos.io>",
			License:       "Unknown",
			Tags:          []string{"role::container-app", "category::media"},
			Architecture:  "all",
		},
		Config: Config{
			Version: "1.0",
			Groups: []ConfigGroup{
				{
					ID:    "system",
					Label: "System",
					Fields: []ConfigField{
						{ID: "TZ", Label: "Time zone", Type: "string", Default: "UTC", Required: false},
					},
				},
			},
		},
		Compose: map[string]any{
			"name": "jellyfin",
			"services": map[string]any{
				"jellyfin": map[string]any{
					"image":   "jellyfin/jellyfin:10.9.7",
					"restart": "unless-stopped",
				},
			},
		},
	}
}

func TestWriteValidDescriptor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jellyfin")
	if err := NewWriter(dir).Write(validDescriptor()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, name := range []string{MetadataFileName, ConfigFileName, ComposeFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}
}

func TestWriteRejectsInvalidMetadata(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Descriptor)
	}{
		{"missing maintainer", func(d *Descriptor) { d.Metadata.Maintainer = "" }},
		{"bad package name", func(d *Descriptor) { d.Metadata.PackageName = "Jellyfin" }},
		{"bad version", func(d *Descriptor) { d.Metadata.Version = "latest" }},
		{"missing role tag", func(d *Descriptor) { d.Metadata.Tags = []string{"category::media"} }},
		{"long description", func(d *Descriptor) { d.Metadata.Description = string(bytesOf(100)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "app")
			d := validDescriptor()
			tc.mutate(d)
			err := NewWriter(dir).Write(d)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if _, ok := err.(*GenerationError); !ok {
				t.Fatalf("expected *GenerationError, got %T", err)
			}
			if _, statErr := os.Stat(filepath.Join(dir, MetadataFileName)); statErr == nil {
				t.Error("rejected package must not be written")
			}
		})
	}
}

func TestWriteRejectsInvalidConfig(t *testing.T) {
	d := validDescriptor()
	d.Config.Groups[0].Fields[0].ID = "lowercase_id"
	err := NewWriter(filepath.Join(t.TempDir(), "app")).Write(d)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if _, ok := err.(*GenerationError); !ok {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
}

func TestWriteStripsExtensions(t *testing.T) {
	d := validDescriptor()
	d.Compose["x-casaos"] = map[string]any{"category": "Media"}
	d.Compose["services"].(map[string]any)["jellyfin"].(map[string]any)["x-casaos"] = map[string]any{"envs": []any{}}

	dir := filepath.Join(t.TempDir(), "jellyfin")
	if err := NewWriter(dir).Write(d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	payload, err := os.ReadFile(filepath.Join(dir, ComposeFileName))
	if err != nil {
		t.Fatal(err)
	}
	var written map[string]any
	if err := yaml.Unmarshal(payload, &written); err != nil {
		t.Fatal(err)
	}
	if _, ok := written["x-casaos"]; ok {
		t.Error("root extension key survived the write")
	}
	svc := written["services"].(map[string]any)["jellyfin"].(map[string]any)
	if _, ok := svc["x-casaos"]; ok {
		t.Error("service extension key survived the write")
	}
}

func TestValidateEnumRequiresOptions(t *testing.T) {
	d := validDescriptor()
	d.Config.Groups[0].Fields[0] = ConfigField{
		ID: "LOG_LEVEL", Label: "Log level", Type: "enum", Default: "info", Required: false,
	}
	if err := NewWriter(filepath.Join(t.TempDir(), "app")).Write(d); err == nil {
		t.Fatal("enum field without options must be rejected")
	}

	d.Config.Groups[0].Fields[0].Options = []string{"debug", "info", "warn"}
	if err := NewWriter(filepath.Join(t.TempDir(), "app")).Write(d); err != nil {
		t.Fatalf("enum field with options rejected: %v", err)
	}
}

func bytesOf(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return b
}
