package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dirtidy/internal/errors"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a rules file encoding.
type Format int

const (
	TOML Format = iota
	YAML
)

// FormatFor picks the encoding from the file extension. Anything that is
// not .yaml or .yml is read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return TOML
	}
}

// Category is one named group of extensions as declared in a rules file.
type Category struct {
	Name       string
	Extensions []string
}

// Rules is the parsed, not yet validated, content of a rules file.
type Rules struct {
	Categories []Category
	Ignore     []string
	Settings   Settings
}

// rawSettings mirrors the optional [settings] table.
type rawSettings struct {
	Collision     string `toml:"collision" yaml:"collision"`
	VerifyContent bool   `toml:"verify_content" yaml:"verify_content"`
}

type tomlRules struct {
	Mapping  map[string][]string `toml:"mapping"`
	Ignore   []string            `toml:"ignore"`
	Settings rawSettings         `toml:"settings"`
}

type yamlRules struct {
	Mapping  yaml.Node   `yaml:"mapping"`
	Ignore   *[]string   `yaml:"ignore"`
	Settings rawSettings `yaml:"settings"`
}

// LoadRules reads and parses the rules file at path.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError("rules file not found; create it or pass --config", path, errors.ConfigNotFound, err)
		}
		return nil, errors.NewConfigError("cannot read rules file", path, errors.ConfigNotFound, err)
	}
	rules, err := ParseRules(data, FormatFor(path))
	if err != nil {
		return nil, errors.NewConfigError("failed to parse rules file", path, errors.InvalidConfig, err)
	}
	return rules, nil
}

// ParseRules decodes a rules document. Both the mapping and ignore keys
// are required.
func ParseRules(data []byte, format Format) (*Rules, error) {
	switch format {
	case YAML:
		return parseYAML(data)
	default:
		return parseTOML(data)
	}
}

func parseTOML(data []byte) (*Rules, error) {
	var present map[string]interface{}
	if err := toml.Unmarshal(data, &present); err != nil {
		return nil, err
	}
	for _, key := range []string{"mapping", "ignore"} {
		if _, ok := present[key]; !ok {
			return nil, fmt.Errorf("missing required key %q", key)
		}
	}

	var raw tomlRules
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// TOML tables carry no order; sort categories so classification is
	// the same on every run.
	names := make([]string, 0, len(raw.Mapping))
	for name := range raw.Mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := &Rules{Ignore: raw.Ignore, Settings: raw.Settings.settings()}
	for _, name := range names {
		rules.Categories = append(rules.Categories, Category{Name: name, Extensions: raw.Mapping[name]})
	}
	return rules, nil
}

func parseYAML(data []byte) (*Rules, error) {
	var raw yamlRules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Mapping.Kind == 0 {
		return nil, fmt.Errorf("missing required key %q", "mapping")
	}
	if raw.Ignore == nil {
		return nil, fmt.Errorf("missing required key %q", "ignore")
	}
	if raw.Mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: mapping must be a map of category to extensions", raw.Mapping.Line)
	}

	rules := &Rules{Ignore: *raw.Ignore, Settings: raw.Settings.settings()}
	content := raw.Mapping.Content
	for i := 0; i+1 < len(content); i += 2 {
		var exts []string
		if err := content[i+1].Decode(&exts); err != nil {
			return nil, fmt.Errorf("line %d: category %q: %w", content[i+1].Line, content[i].Value, err)
		}
		rules.Categories = append(rules.Categories, Category{Name: content[i].Value, Extensions: exts})
	}
	return rules, nil
}

func (r rawSettings) settings() Settings {
	return Settings{Collision: Collision(r.Collision), VerifyContent: r.VerifyContent}
}

// DefaultRules returns a starter rule set for common file types.
func DefaultRules() *Rules {
	return &Rules{
		Categories: []Category{
			{Name: "Images", Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "heic"}},
			{Name: "Documents", Extensions: []string{"pdf", "doc", "docx", "odt", "rtf", "txt", "md"}},
			{Name: "Spreadsheets", Extensions: []string{"xls", "xlsx", "ods", "csv"}},
			{Name: "Presentations", Extensions: []string{"ppt", "pptx", "odp"}},
			{Name: "Audio", Extensions: []string{"mp3", "wav", "flac", "aac", "ogg"}},
			{Name: "Video", Extensions: []string{"mp4", "mov", "avi", "mkv", "wmv"}},
			{Name: "Archives", Extensions: []string{"zip", "tar", "gz", "rar", "7z"}},
		},
		Ignore: []string{"*.tmp", "*.part", "*.crdownload", ".DS_Store"},
	}
}

// SaveRules writes rules to path in the format its extension implies,
// creating parent directories as needed.
func SaveRules(rules *Rules, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if FormatFor(path) == YAML {
		data, err = encodeYAML(rules)
	} else {
		data, err = encodeTOML(rules)
	}
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

func encodeTOML(rules *Rules) ([]byte, error) {
	raw := tomlRules{
		Mapping:  make(map[string][]string, len(rules.Categories)),
		Ignore:   rules.Ignore,
		Settings: rawSettings{Collision: string(rules.Settings.Collision), VerifyContent: rules.Settings.VerifyContent},
	}
	if raw.Ignore == nil {
		raw.Ignore = []string{}
	}
	for _, c := range rules.Categories {
		raw.Mapping[c.Name] = c.Extensions
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetArraysMultiline(false)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeYAML builds the document by hand so categories keep their order.
func encodeYAML(rules *Rules) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range rules.Categories {
		var exts yaml.Node
		if err := exts.Encode(c.Extensions); err != nil {
			return nil, err
		}
		exts.Style = yaml.FlowStyle
		mapping.Content = append(mapping.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}, &exts)
	}

	ignore := rules.Ignore
	if ignore == nil {
		ignore = []string{}
	}
	var ignoreNode yaml.Node
	if err := ignoreNode.Encode(ignore); err != nil {
		return nil, err
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "mapping"}, mapping,
		{Kind: yaml.ScalarNode, Value: "ignore"}, &ignoreNode,
	}}
	if rules.Settings != (Settings{}) {
		var settings yaml.Node
		if err := settings.Encode(rawSettings{Collision: string(rules.Settings.Collision), VerifyContent: rules.Settings.VerifyContent}); err != nil {
			return nil, err
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "settings"}, &settings)
	}
	return yaml.Marshal(doc)
}
