// Where: cli/internal/casaos/parser.go
// What: Parser for CasaOS docker-compose.yml files with x-casaos metadata.
// Why: Turn permissive vendor documents into the typed model, tolerating
// malformed sub-fields as warnings instead of failures.
package casaos

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComposeFileName is the source document expected inside every app directory.
const ComposeFileName = "docker-compose.yml"

// appExtensionKeys are the x-casaos keys the typed model understands; any
// other key lands in App.Extra.
var appExtensionKeys = map[string]struct{}{
	"category":        {},
	"tagline":         {},
	"description":     {},
	"developer":       {},
	"homepage":        {},
	"icon":            {},
	"screenshot_link": {},
	"tags":            {},
}

type composeDoc struct {
	Name     string         `yaml:"name"`
	Services yaml.Node      `yaml:"services"`
	XCasaOS  map[string]any `yaml:"x-casaos"`
}

type serviceDoc struct {
	Image       string           `yaml:"image"`
	Environment yaml.Node        `yaml:"environment"`
	Ports       []any            `yaml:"ports"`
	Volumes     []any            `yaml:"volumes"`
	Command     any              `yaml:"command"`
	Entrypoint  any              `yaml:"entrypoint"`
	XCasaOS     serviceExtension `yaml:"x-casaos"`
}

type serviceExtension struct {
	Envs    []map[string]any `yaml:"envs"`
	Ports   []map[string]any `yaml:"ports"`
	Volumes []map[string]any `yaml:"volumes"`
}

// parser accumulates warnings for a single Parse call. A fresh instance is
// created per call, so Parse and ParseFile are safe for concurrent use.
type parser struct {
	warnings []string
}

// ParseFile parses a CasaOS app from a docker-compose.yml on disk.
// Warnings are prefixed with the file path for batch reporting.
func ParseFile(path string) (*App, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ParseError{File: path, Reason: "read compose file", Err: err}
	}
	app, warnings, err := Parse(content)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.File = path
		}
		return nil, nil, err
	}
	for i, w := range warnings {
		warnings[i] = fmt.Sprintf("%s: %s", path, w)
	}
	return app, warnings, nil
}

// Parse parses a CasaOS app from YAML content. It returns the typed app and
// the non-fatal warnings encountered, or a ParseError when the document is
// structurally invalid. A partial App is never returned.
func Parse(content []byte) (*App, []string, error) {
	var doc composeDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil, &ParseError{Reason: "invalid YAML syntax", Err: err}
	}

	if doc.Name == "" {
		return nil, nil, &ParseError{Reason: "missing required 'name' field"}
	}
	if len(doc.XCasaOS) == 0 {
		return nil, nil, &ParseError{Reason: "missing required 'x-casaos' metadata"}
	}
	if doc.Services.Kind == 0 || doc.Services.Kind != yaml.MappingNode || len(doc.Services.Content) == 0 {
		return nil, nil, &ParseError{Reason: "missing or empty 'services'"}
	}

	p := &parser{}

	services, err := p.parseServices(&doc.Services)
	if err != nil {
		return nil, nil, err
	}

	ext := doc.XCasaOS
	app := &App{
		ID:          doc.Name,
		Name:        doc.Name,
		Tagline:     extractMultilingual(ext["tagline"]),
		Description: extractMultilingual(ext["description"]),
		Category:    stringValue(ext["category"]),
		Developer:   stringValue(ext["developer"]),
		Homepage:    stringValue(ext["homepage"]),
		Icon:        stringValue(ext["icon"]),
		Screenshots: stringSlice(ext["screenshot_link"]),
		Tags:        stringSlice(ext["tags"]),
		Services:    services,
		Extra:       extraKeys(ext),
	}

	if err := app.validate(); err != nil {
		return nil, nil, err
	}
	return app, p.warnings, nil
}

func (p *parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// parseServices walks the services mapping node in document order so that
// the first declared service stays first in the model.
func (p *parser) parseServices(node *yaml.Node) ([]Service, error) {
	services := make([]Service, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var doc serviceDoc
		if err := node.Content[i+1].Decode(&doc); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("invalid definition for service '%s'", name), Err: err}
		}
		services = append(services, p.parseService(name, &doc))
	}
	return services, nil
}

func (p *parser) parseService(name string, doc *serviceDoc) Service {
	envVars := p.parseEnvVars(&doc.Environment, doc.XCasaOS.Envs)

	declared := make(map[string]struct{}, len(envVars))
	for _, env := range envVars {
		declared[env.Name] = struct{}{}
	}

	return Service{
		Name:        name,
		Image:       doc.Image,
		Environment: envVars,
		Ports:       p.parsePorts(doc.Ports, doc.XCasaOS.Ports, declared),
		Volumes:     p.parseVolumes(doc.Volumes, doc.XCasaOS.Volumes),
		Command:     p.coerceStringList(doc.Command, fmt.Sprintf("command in service '%s'", name)),
		Entrypoint:  p.coerceStringList(doc.Entrypoint, fmt.Sprintf("entrypoint in service '%s'", name)),
	}
}

// parseEnvVars accepts both the map form and the KEY=value list form of the
// compose environment section, joining each variable with its x-casaos
// metadata entry keyed by container name.
func (p *parser) parseEnvVars(node *yaml.Node, metadata []map[string]any) []EnvVar {
	type pair struct{ name, value string }
	var pairs []pair

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			pairs = append(pairs, pair{node.Content[i].Value, node.Content[i+1].Value})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			entry := item.Value
			if key, value, found := strings.Cut(entry, "="); found {
				pairs = append(pairs, pair{key, value})
			} else if entry != "" {
				pairs = append(pairs, pair{entry, ""})
			}
		}
	}

	lookup := metadataByContainer(metadata)

	envVars := make([]EnvVar, 0, len(pairs))
	for _, kv := range pairs {
		meta := lookup[kv.name]
		envVars = append(envVars, EnvVar{
			Name:        kv.name,
			Default:     kv.value,
			Label:       stringValue(meta["label"]),
			Description: extractMultilingual(meta["description"]),
			TypeHint:    stringValue(meta["type"]),
		})
	}
	return envVars
}

func (p *parser) parsePorts(entries []any, metadata []map[string]any, declared map[string]struct{}) []Port {
	lookup := make(map[int]map[string]any, len(metadata))
	for _, item := range metadata {
		raw, ok := item["container"]
		if !ok {
			continue
		}
		if port, ok := toInt(raw); ok {
			lookup[port] = item
		} else {
			p.warnf("Failed to convert port metadata container value to int: %v", raw)
		}
	}

	var ports []Port
	for _, entry := range entries {
		var container, host *int
		var hostUnresolved bool
		var protocol string

		switch value := entry.(type) {
		case string:
			hostPart, containerPart, found := strings.Cut(value, ":")
			if !found {
				// Container-only shorthand like "80" or "80/udp".
				containerPart, hostPart = hostPart, ""
			}
			if base, proto, found := strings.Cut(containerPart, "/"); found {
				containerPart, protocol = base, proto
			}
			container, _ = p.resolvePortSide(containerPart, declared)
			host, hostUnresolved = p.resolvePortSide(hostPart, declared)
		case map[string]any:
			if target, ok := toInt(value["target"]); ok {
				container = &target
			} else {
				p.warnf("Failed to parse port target: %v", value["target"])
			}
			if published, ok := value["published"]; ok && published != nil {
				host, hostUnresolved = p.resolvePortSide(fmt.Sprint(published), declared)
			}
			protocol = stringValue(value["protocol"])
		}

		if container == nil || *container < 1 || *container > 65535 {
			p.warnf("Skipping unparseable port configuration: %v", entry)
			continue
		}

		meta := lookup[*container]
		if protocol == "" {
			protocol = stringValue(meta["protocol"])
		}
		if protocol != "tcp" && protocol != "udp" {
			protocol = ""
		}

		ports = append(ports, Port{
			Container:      *container,
			Host:           host,
			HostUnresolved: hostUnresolved,
			Protocol:       protocol,
			Description:    extractMultilingual(meta["description"]),
		})
	}
	return ports
}

// resolvePortSide parses one side of a port mapping. Placeholder references
// to undeclared variables stay unresolved with a warning; they are never an
// error. The bool result reports an unresolved placeholder.
func (p *parser) resolvePortSide(raw string, declared map[string]struct{}) (*int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if name, ok := placeholderName(raw); ok {
		if _, defined := declared[name]; !defined {
			p.warnf("Port references undefined variable: %s", name)
		}
		return nil, true
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		p.warnf("Failed to parse port mapping '%s': %v", raw, err)
		return nil, false
	}
	return &port, false
}

func (p *parser) parseVolumes(entries []any, metadata []map[string]any) []Volume {
	lookup := make(map[string]map[string]any, len(metadata))
	for _, item := range metadata {
		if container := stringValue(item["container"]); container != "" {
			lookup[container] = item
		}
	}

	var volumes []Volume
	for _, entry := range entries {
		var container, host, mode string

		switch value := entry.(type) {
		case string:
			parts := strings.Split(value, ":")
			if len(parts) >= 2 {
				host = parts[0]
				container = parts[1]
				if len(parts) == 3 {
					mode = parts[2]
				}
			}
		case map[string]any:
			container = stringValue(value["target"])
			host = stringValue(value["source"])
			if readOnly, ok := value["read_only"].(bool); ok && readOnly {
				mode = "ro"
			}
		}

		if container == "" || host == "" {
			p.warnf("Skipping incomplete volume configuration: %v", entry)
			continue
		}

		meta := lookup[container]
		volumes = append(volumes, Volume{
			Container:   container,
			Host:        host,
			Mode:        mode,
			Description: extractMultilingual(meta["description"]),
		})
	}
	return volumes
}

// coerceStringList normalizes command/entrypoint values to a string slice.
// Non-string entries are converted with a warning rather than rejected.
func (p *parser) coerceStringList(value any, context string) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		result := make([]string, 0, len(v))
		for i, item := range v {
			if _, ok := item.(string); !ok {
				p.warnf("Non-string item at index %d in %s: %T. Converting to string.", i, context, item)
			}
			result = append(result, fmt.Sprint(item))
		}
		return result
	default:
		p.warnf("Unexpected type for %s: %T. Expected string or list. Converting to string.", context, value)
		return []string{fmt.Sprint(value)}
	}
}

func metadataByContainer(metadata []map[string]any) map[string]map[string]any {
	lookup := make(map[string]map[string]any, len(metadata))
	for _, item := range metadata {
		if container := stringValue(item["container"]); container != "" {
			lookup[container] = item
		}
	}
	return lookup
}

// placeholderName reports whether raw is a ${NAME} reference and returns NAME.
func placeholderName(raw string) (string, bool) {
	if strings.HasPrefix(raw, "${") && strings.HasSuffix(raw, "}") {
		return raw[2 : len(raw)-1], true
	}
	return "", false
}

// extractMultilingual collapses a multilingual field to a single locale
// using a fixed preference order, falling back to the lexicographically
// first value so the result is deterministic.
func extractMultilingual(field any) string {
	switch value := field.(type) {
	case map[string]any:
		for _, key := range []string{"en_us", "en-us", "en", "default"} {
			if text, ok := value[key]; ok {
				return fmt.Sprint(text)
			}
		}
		if len(value) == 0 {
			return ""
		}
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return fmt.Sprint(value[keys[0]])
	case string:
		return value
	case nil:
		return ""
	default:
		return ""
	}
}

func stringValue(value any) string {
	if text, ok := value.(string); ok {
		return text
	}
	return ""
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok {
			result = append(result, text)
		}
	}
	return result
}

func extraKeys(ext map[string]any) map[string]any {
	var extra map[string]any
	for key, value := range ext {
		if _, known := appExtensionKeys[key]; known {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[key] = value
	}
	return extra
}

// toInt coerces the scalar types yaml.v3 produces for numbers, plus numeric
// strings, into an int.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
