// Where: cli/internal/descriptor/descriptor.go
// What: Normalized package descriptor produced by the transformer.
// Why: Give the three output records (metadata, config, compose) a typed
// shape that serializes through JSON tags for schema validation.
package descriptor

// Descriptor is the three-part normalized output of one conversion.
// It is immutable once written.
type Descriptor struct {
	Metadata Metadata
	Config   Config
	Compose  map[string]any
}

// Metadata mirrors metadata.yaml. Fields the source format cannot provide
// (version, maintainer, license, architecture) are filled with defaults by
// the batch layer before writing.
type Metadata struct {
	Name            string          `json:"name"`
	PackageName     string          `json:"package_name"`
	Version         string          `json:"version,omitempty"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description,omitempty"`
	DebianSection   string          `json:"debian_section"`
	Homepage        string          `json:"homepage,omitempty"`
	Icon            string          `json:"icon,omitempty"`
	Screenshots     []string        `json:"screenshots,omitempty"`
	Maintainer      string          `json:"maintainer,omitempty"`
	License         string          `json:"license,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Architecture    string          `json:"architecture,omitempty"`
	SourceMetadata  *SourceMetadata `json:"source_metadata,omitempty"`
}

// SourceMetadata records where a converted package came from, including the
// upstream content hash used by update detection.
type SourceMetadata struct {
	Type                string `json:"type"`
	AppID               string `json:"app_id"`
	SourceURL           string `json:"source_url"`
	UpstreamHash        string `json:"upstream_hash"`
	ConversionTimestamp string `json:"conversion_timestamp"`
	VersionSource       string `json:"version_source,omitempty"`
	DockerImage         string `json:"docker_image,omitempty"`
}

// Config mirrors config.yml: ordered groups of typed fields.
type Config struct {
	Version string        `json:"version"`
	Groups  []ConfigGroup `json:"groups"`
}

// ConfigGroup collects related fields under a lowercase_snake_case id.
type ConfigGroup struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Fields      []ConfigField `json:"fields"`
}

// ConfigField is one user-configurable parameter. The id doubles as the
// environment variable name injected into the cleaned compose file.
type ConfigField struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	Required    bool     `json:"required"`
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
}
