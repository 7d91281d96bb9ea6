// Where: cli/internal/descriptor/validator.go
// What: Schema validation for metadata and config records.
// Why: Reject descriptors the downstream package builder would refuse,
// before anything lands on disk.
package descriptor

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

var (
	schemaOnce     sync.Once
	schemaErr      error
	metadataSchema *jsonschema.Schema
	configSchema   *jsonschema.Schema
)

func loadSchemas() error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		for _, name := range []string{"metadata.schema.json", "config.schema.json"} {
			payload, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				schemaErr = err
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(payload)); err != nil {
				schemaErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
		}
		if metadataSchema, schemaErr = compiler.Compile("metadata.schema.json"); schemaErr != nil {
			return
		}
		configSchema, schemaErr = compiler.Compile("config.schema.json")
	})
	return schemaErr
}

// ValidateMetadata checks a serialized metadata record against the package
// metadata schema.
func ValidateMetadata(yamlPayload []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validateYAML(metadataSchema, yamlPayload)
}

// ValidateConfig checks a serialized config record against the
// configuration schema.
func ValidateConfig(yamlPayload []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validateYAML(configSchema, yamlPayload)
}

func validateYAML(schema *jsonschema.Schema, yamlPayload []byte) error {
	jsonData, err := yaml.YAMLToJSON(yamlPayload)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}
	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return schema.Validate(document)
}
