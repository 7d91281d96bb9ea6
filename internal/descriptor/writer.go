// Where: cli/internal/descriptor/writer.go
// What: Output writer for converted packages.
// Why: Serialize the three descriptor records with validation, so only
// schema-accepted packages reach the output tree.
package descriptor

import (
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/appbridge/cli/internal/fileops"
)

// Output file names inside every converted app directory.
const (
	MetadataFileName = "metadata.yaml"
	ConfigFileName   = "config.yml"
	ComposeFileName  = "docker-compose.yml"
)

// Writer writes one converted package to its app-named output directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at the app's output directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write validates the metadata and config records against their schemas,
// strips any residual vendor extension keys from the compose record, and
// writes metadata.yaml, config.yml, and docker-compose.yml. Validation
// failures reject the whole package; nothing is written.
func (w *Writer) Write(d *Descriptor) error {
	metadataYAML, err := yaml.Marshal(d.Metadata)
	if err != nil {
		return &GenerationError{Reason: "marshal metadata", Err: err}
	}
	if err := ValidateMetadata(metadataYAML); err != nil {
		return &GenerationError{Reason: "metadata validation failed", Err: err}
	}

	configYAML, err := yaml.Marshal(d.Config)
	if err != nil {
		return &GenerationError{Reason: "marshal config", Err: err}
	}
	if err := ValidateConfig(configYAML); err != nil {
		return &GenerationError{Reason: "config validation failed", Err: err}
	}

	composeYAML, err := yaml.Marshal(StripExtensions(d.Compose))
	if err != nil {
		return &GenerationError{Reason: "marshal compose", Err: err}
	}

	if err := fileops.EnsureDir(w.dir); err != nil {
		return &GenerationError{File: w.dir, Reason: "create output directory", Err: err}
	}
	for _, file := range []struct {
		name    string
		payload []byte
	}{
		{MetadataFileName, metadataYAML},
		{ConfigFileName, configYAML},
		{ComposeFileName, composeYAML},
	} {
		path := filepath.Join(w.dir, file.name)
		if err := fileops.WriteFile(path, file.payload); err != nil {
			return &GenerationError{File: path, Reason: "write output file", Err: err}
		}
	}
	return nil
}

// StripExtensions removes x-casaos keys at the document root and at every
// service, returning a copy. The transformer never emits them, but stripping
// here keeps the guarantee independent of upstream behavior.
func StripExtensions(compose map[string]any) map[string]any {
	clean := make(map[string]any, len(compose))
	for key, value := range compose {
		if key == "x-casaos" {
			continue
		}
		clean[key] = value
	}
	services, ok := clean["services"].(map[string]any)
	if !ok {
		return clean
	}
	cleanServices := make(map[string]any, len(services))
	for name, svc := range services {
		if svcMap, ok := svc.(map[string]any); ok {
			cleanSvc := make(map[string]any, len(svcMap))
			for key, value := range svcMap {
				if key == "x-casaos" {
					continue
				}
				cleanSvc[key] = value
			}
			cleanServices[name] = cleanSvc
		} else {
			cleanServices[name] = svc
		}
	}
	clean["services"] = cleanServices
	return clean
}
