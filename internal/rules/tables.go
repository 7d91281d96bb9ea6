// Where: cli/internal/rules/tables.go
// What: Data-driven mapping tables for the conversion pipeline.
// Why: Keep category mapping, field-type inference, and path rewriting as
// externally supplied data so conversions can be tuned without code changes.
package rules

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

const (
	categoriesFile = "categories.yaml"
	fieldTypesFile = "field_types.yaml"
	pathsFile      = "paths.yaml"
)

// Tables bundles the three mapping tables loaded once per transformer
// construction. A loaded Tables is read-only and safe to share across jobs.
type Tables struct {
	Categories CategoryTable
	FieldTypes FieldTypeTable
	Paths      PathTable
}

// CategoryTable maps source categories to target sections and tags.
type CategoryTable struct {
	Default  string
	Mappings map[string]CategoryMapping
}

// CategoryMapping is one category's target section and optional tag.
type CategoryMapping struct {
	Section string
	Tag     string
}

// FieldTypeTable drives field-type inference for environment variables.
// Patterns are an ordered list: the first match wins, so order in the data
// file is semantically load-bearing.
type FieldTypeTable struct {
	Patterns []FieldPattern
	Defaults map[string]string
	Groups   map[string]string
}

// FieldPattern is one compiled inference rule.
type FieldPattern struct {
	Pattern    *regexp.Regexp
	Type       string
	Validation Validation
	Group      string
}

// Validation carries optional numeric bounds for an inferred field.
type Validation struct {
	Min *int
	Max *int
}

// PathTable drives volume host-path rewriting. Preserve prefixes bypass
// rewriting entirely; Transforms are walked in order with first match wins.
type PathTable struct {
	Preserve      []string
	Transforms    []PathTransform
	DefaultAction string
}

// PathTransform rewrites a path prefix.
type PathTransform struct {
	From string
	To   string
}

type rawCategories struct {
	Default  string `yaml:"default"`
	Mappings map[string]struct {
		Section string `yaml:"section"`
		Tag     string `yaml:"tag"`
	} `yaml:"mappings"`
}

type rawFieldTypes struct {
	Patterns []struct {
		Pattern    string `yaml:"pattern"`
		Type       string `yaml:"type"`
		Validation struct {
			Min *int `yaml:"min"`
			Max *int `yaml:"max"`
		} `yaml:"validation"`
		Group string `yaml:"group"`
	} `yaml:"patterns"`
	Defaults map[string]string `yaml:"defaults"`
	Groups   map[string]string `yaml:"groups"`
}

type rawPaths struct {
	SpecialCases struct {
		Preserve []string `yaml:"preserve"`
	} `yaml:"special_cases"`
	Transforms []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"transforms"`
	Default struct {
		Action string `yaml:"action"`
	} `yaml:"default"`
}

// Load reads the three mapping files from dir. An empty dir loads the
// embedded defaults. A missing or malformed file is fatal: no conversion
// may begin without a complete rule set.
func Load(dir string) (*Tables, error) {
	read := func(name string) ([]byte, error) {
		if dir == "" {
			return fs.ReadFile(defaultsFS, "defaults/"+name)
		}
		payload, err := os.ReadFile(dir + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("required mapping file not found: %s: %w", name, err)
		}
		return payload, nil
	}

	tables := &Tables{}

	payload, err := read(categoriesFile)
	if err != nil {
		return nil, err
	}
	if tables.Categories, err = parseCategories(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", categoriesFile, err)
	}

	if payload, err = read(fieldTypesFile); err != nil {
		return nil, err
	}
	if tables.FieldTypes, err = parseFieldTypes(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", fieldTypesFile, err)
	}

	if payload, err = read(pathsFile); err != nil {
		return nil, err
	}
	if tables.Paths, err = parsePaths(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", pathsFile, err)
	}

	return tables, nil
}

func parseCategories(payload []byte) (CategoryTable, error) {
	var raw rawCategories
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return CategoryTable{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw.Mappings == nil {
		return CategoryTable{}, fmt.Errorf("must contain 'mappings' key")
	}
	if raw.Default == "" {
		return CategoryTable{}, fmt.Errorf("must declare a 'default' section")
	}

	table := CategoryTable{
		Default:  raw.Default,
		Mappings: make(map[string]CategoryMapping, len(raw.Mappings)),
	}
	for category, mapping := range raw.Mappings {
		table.Mappings[category] = CategoryMapping(mapping)
	}
	return table, nil
}

func parseFieldTypes(payload []byte) (FieldTypeTable, error) {
	var raw rawFieldTypes
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return FieldTypeTable{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw.Patterns == nil {
		return FieldTypeTable{}, fmt.Errorf("must contain 'patterns' key")
	}

	table := FieldTypeTable{
		Patterns: make([]FieldPattern, 0, len(raw.Patterns)),
		Defaults: raw.Defaults,
		Groups:   raw.Groups,
	}
	if table.Defaults == nil {
		table.Defaults = map[string]string{}
	}
	for _, entry := range raw.Patterns {
		compiled, err := regexp.Compile(entry.Pattern)
		if err != nil {
			return FieldTypeTable{}, fmt.Errorf("invalid pattern %q: %w", entry.Pattern, err)
		}
		group := entry.Group
		if group == "" {
			group = "configuration"
		}
		table.Patterns = append(table.Patterns, FieldPattern{
			Pattern:    compiled,
			Type:       entry.Type,
			Validation: Validation{Min: entry.Validation.Min, Max: entry.Validation.Max},
			Group:      group,
		})
	}
	return table, nil
}

func parsePaths(payload []byte) (PathTable, error) {
	var raw rawPaths
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return PathTable{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw.Transforms == nil {
		return PathTable{}, fmt.Errorf("must contain 'transforms' key")
	}

	table := PathTable{
		Preserve:      raw.SpecialCases.Preserve,
		Transforms:    make([]PathTransform, 0, len(raw.Transforms)),
		DefaultAction: raw.Default.Action,
	}
	for _, entry := range raw.Transforms {
		table.Transforms = append(table.Transforms, PathTransform(entry))
	}
	return table, nil
}

// MapCategory resolves a source category to its target section, falling
// back to the declared default on a miss or an empty category.
func (t CategoryTable) MapCategory(category string) string {
	if mapping, ok := t.Mappings[category]; ok && mapping.Section != "" {
		return mapping.Section
	}
	return t.Default
}

// CategoryTag returns the "category::<tag>" tag for a mapped category, or
// an empty string when the category has no tag mapping.
func (t CategoryTable) CategoryTag(category string) string {
	if mapping, ok := t.Mappings[category]; ok && mapping.Tag != "" {
		return "category::" + mapping.Tag
	}
	return ""
}
