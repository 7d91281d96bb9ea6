// Where: cli/internal/transform/transformer.go
// What: Source app to normalized package descriptor transformation.
// Why: The conversion core: category mapping, field-type inference, path
// rewriting, and compose cleanup driven by the loaded rule tables.
package transform

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/appbridge/cli/internal/casaos"
	"github.com/appbridge/cli/internal/descriptor"
	"github.com/appbridge/cli/internal/hashing"
	"github.com/appbridge/cli/internal/meta"
	"github.com/appbridge/cli/internal/rules"
)

// Source identifies where the app being transformed came from. Both fields
// must be set for the descriptor to carry a source-tracking record; update
// detection needs the recorded hash.
type Source struct {
	FilePath string
	URL      string
}

// Transformer converts parsed source apps into normalized descriptors. Once
// constructed its rule tables are read-only, so one Transformer is safe to
// share across concurrent conversion jobs.
type Transformer struct {
	tables *rules.Tables
	prefix string
}

// New creates a Transformer around loaded rule tables. The prefix becomes
// the leading component of every derived package name.
func New(tables *rules.Tables, prefix string) *Transformer {
	return &Transformer{tables: tables, prefix: prefix}
}

// Transform produces the three-part descriptor for one app. Failures return
// a ConversionError and no partial descriptor.
func (t *Transformer) Transform(app *casaos.App, src Source) (*descriptor.Descriptor, error) {
	appID, err := NormalizeID(app.Name)
	if err != nil {
		return nil, &ConversionError{AppID: app.ID, Reason: "derive package name", Err: err}
	}
	packageName := PackageName(appID, t.prefix)

	synopsis := app.Tagline
	longDescription := app.Description
	if utf8.RuneCountInString(synopsis) > synopsisMaxLength {
		// Keep the full tagline; the shortened form goes into the synopsis.
		if longDescription != "" {
			longDescription = synopsis + "\n\n" + longDescription
		} else {
			longDescription = synopsis
		}
		synopsis = Synopsis(app.Tagline)
	}

	var sourceMetadata *descriptor.SourceMetadata
	if src.FilePath != "" && src.URL != "" {
		hash, err := hashing.FileSHA256(src.FilePath)
		if err != nil {
			return nil, &ConversionError{AppID: app.ID, Reason: "hash source document", Err: err}
		}
		sourceMetadata = &descriptor.SourceMetadata{
			Type:                meta.SourceFormat,
			AppID:               app.ID,
			SourceURL:           src.URL,
			UpstreamHash:        hash,
			ConversionTimestamp: time.Now().UTC().Format(time.RFC3339),
		}
	}

	var version string
	if primary := primaryService(app); primary != nil {
		version = VersionFromImage(primary.Image)
		if version != "" && sourceMetadata != nil {
			sourceMetadata.VersionSource = "auto-extracted"
			sourceMetadata.DockerImage = primary.Image
		}
	}

	var tags []string
	if tag := t.tables.Categories.CategoryTag(app.Category); tag != "" {
		tags = append(tags, tag)
	}

	d := &descriptor.Descriptor{
		Metadata: descriptor.Metadata{
			Name:            app.Name,
			PackageName:     packageName,
			Version:         version,
			Description:     synopsis,
			LongDescription: longDescription,
			DebianSection:   t.tables.Categories.MapCategory(app.Category),
			Homepage:        app.Homepage,
			Icon:            app.Icon,
			Screenshots:     app.Screenshots,
			Tags:            tags,
			SourceMetadata:  sourceMetadata,
		},
		Config: descriptor.Config{
			Version: "1.0",
			Groups:  t.configGroups(app),
		},
		Compose: t.cleanCompose(app),
	}
	return d, nil
}

// configGroups runs field-type inference over every environment variable of
// every service and groups the resulting fields. Groups appear in the order
// their first field was encountered, fields in declaration order.
func (t *Transformer) configGroups(app *casaos.App) []descriptor.ConfigGroup {
	fieldsByGroup := map[string][]descriptor.ConfigField{}
	var groupOrder []string

	for _, svc := range app.Services {
		for _, env := range svc.Environment {
			fieldType, validation, group := t.inferFieldType(env)
			id := NormalizeEnvName(env.Name)

			label := env.Label
			if label == "" {
				label = env.Name
			}
			field := descriptor.ConfigField{
				ID:          id,
				Label:       label,
				Type:        fieldType,
				Default:     env.Default,
				Required:    false,
				Min:         validation.Min,
				Max:         validation.Max,
				Description: env.Description,
			}

			if _, seen := fieldsByGroup[group]; !seen {
				groupOrder = append(groupOrder, group)
			}
			fieldsByGroup[group] = append(fieldsByGroup[group], field)
		}
	}

	groups := make([]descriptor.ConfigGroup, 0, len(groupOrder))
	for _, groupID := range groupOrder {
		groups = append(groups, descriptor.ConfigGroup{
			ID:     groupID,
			Label:  t.groupLabel(groupID),
			Fields: fieldsByGroup[groupID],
		})
	}
	return groups
}

// inferFieldType walks the ordered pattern list; the first match supplies
// type, bounds, and group. Otherwise the source type hint is mapped through
// the defaults table, with the group chosen by the resulting type.
func (t *Transformer) inferFieldType(env casaos.EnvVar) (string, rules.Validation, string) {
	for _, pattern := range t.tables.FieldTypes.Patterns {
		if pattern.Pattern.MatchString(env.Name) {
			return pattern.Type, pattern.Validation, pattern.Group
		}
	}

	defaults := t.tables.FieldTypes.Defaults
	fieldType, ok := defaults[env.TypeHint]
	if !ok {
		if fieldType, ok = defaults["fallback"]; !ok {
			fieldType = "string"
		}
	}
	group := "configuration"
	switch fieldType {
	case "password":
		group = "authentication"
	case "path":
		group = "storage"
	}
	return fieldType, rules.Validation{}, group
}

func (t *Transformer) groupLabel(groupID string) string {
	if label, ok := t.tables.FieldTypes.Groups[groupID]; ok {
		return label
	}
	words := strings.Split(strings.ReplaceAll(groupID, "_", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// NormalizeEnvName converts an environment variable name to shell-safe
// UPPER_SNAKE_CASE. Names starting with a non-letter get an ENV_ prefix.
func NormalizeEnvName(name string) string {
	normalized := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
	if normalized != "" && !unicode.IsLetter(rune(normalized[0])) {
		normalized = "ENV_" + normalized
	}
	return normalized
}

// RewritePath maps a source volume host path into the target layout:
// substitute app-id placeholders, pass preserved system paths through
// unchanged, then walk the rewrite rules in order (first match wins, exact
// or prefix). Unmatched paths fall through to the table's default action.
func (t *Transformer) RewritePath(path, appID string) string {
	path = substituteAppID(path, appID)

	for _, preserved := range t.tables.Paths.Preserve {
		if strings.HasPrefix(path, preserved) {
			return path
		}
	}

	for _, rule := range t.tables.Paths.Transforms {
		from := substituteAppID(rule.From, appID)
		if path == from {
			return rule.To
		}
		if strings.HasPrefix(path, from) {
			return rule.To + path[len(from):]
		}
	}

	if t.tables.Paths.DefaultAction == "prepend_data_root" {
		return "${CONTAINER_DATA_ROOT}" + path
	}
	return path
}

func substituteAppID(path, appID string) string {
	return strings.NewReplacer(
		"{app}", appID,
		"{app_id}", appID,
		"$AppID", appID,
	).Replace(path)
}

// cleanCompose rebuilds the compose document from the typed model: vendor
// extension blocks gone, environment values replaced with ${VAR} references
// to the config fields, host paths rewritten, and every service pinned to
// restart unless-stopped with journald logging.
func (t *Transformer) cleanCompose(app *casaos.App) map[string]any {
	services := make(map[string]any, len(app.Services))
	for _, svc := range app.Services {
		def := map[string]any{
			"image":   svc.Image,
			"restart": "unless-stopped",
			"logging": map[string]any{
				"driver": "journald",
				"options": map[string]any{
					"tag": "{{.Name}}",
				},
			},
		}

		if len(svc.Environment) > 0 {
			env := make(map[string]any, len(svc.Environment))
			for _, envVar := range svc.Environment {
				name := NormalizeEnvName(envVar.Name)
				env[name] = "${" + name + "}"
			}
			def["environment"] = env
		}

		if len(svc.Ports) > 0 {
			ports := make([]any, 0, len(svc.Ports))
			for _, port := range svc.Ports {
				protocol := port.Protocol
				if protocol == "" {
					protocol = "tcp"
				}
				portDef := map[string]any{
					"target":   port.Container,
					"protocol": protocol,
				}
				if port.Host != nil {
					portDef["published"] = *port.Host
				}
				ports = append(ports, portDef)
			}
			def["ports"] = ports
		}

		if len(svc.Volumes) > 0 {
			volumes := make([]any, 0, len(svc.Volumes))
			for _, volume := range svc.Volumes {
				volumeDef := map[string]any{
					"type":   "bind",
					"source": t.RewritePath(volume.Host, app.ID),
					"target": volume.Container,
				}
				if volume.Mode != "" {
					volumeDef["read_only"] = volume.Mode == "ro"
				}
				volumes = append(volumes, volumeDef)
			}
			def["volumes"] = volumes
		}

		if len(svc.Command) > 0 {
			def["command"] = svc.Command
		}
		if len(svc.Entrypoint) > 0 {
			def["entrypoint"] = svc.Entrypoint
		}

		services[svc.Name] = def
	}

	return map[string]any{
		"name":     app.ID,
		"services": services,
	}
}
