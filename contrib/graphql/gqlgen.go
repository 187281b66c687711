package graphql

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the subset of a gqlgen.yml configuration the translator
// cares about: the schema paths, the autobind packages, and the models
// table that maps GraphQL type names to Go models.
type Config struct {
	// SchemaFilename is the path(s) to the GraphQL schema file(s).
	SchemaFilename StringList `yaml:"schema,omitempty"`

	// Autobind is a list of packages to autobind types from.
	Autobind []string `yaml:"autobind,omitempty"`

	// Models maps GraphQL type names to model configurations.
	Models map[string]TypeMapEntry `yaml:"models,omitempty"`
}

// TypeMapEntry is the configuration for a single GraphQL type.
type TypeMapEntry struct {
	// Model is the Go model(s) bound to this GraphQL type, as full
	// "import/path.Type" references.
	Model StringList `yaml:"model,omitempty"`

	// Fields configures field-level mappings.
	Fields map[string]TypeMapField `yaml:"fields,omitempty"`
}

// TypeMapField is the configuration for a single field.
type TypeMapField struct {
	// Resolver indicates if this field needs a resolver.
	Resolver bool `yaml:"resolver,omitempty"`

	// FieldName is the Go struct field name.
	FieldName string `yaml:"fieldName,omitempty"`
}

// StringList is a YAML value that can be either a string or a list of
// strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// LoadConfig loads a gqlgen.yml configuration file. A missing file
// loads as an empty configuration.
func LoadConfig(p string) (*Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Models: make(map[string]TypeMapEntry)}, nil
		}
		return nil, fmt.Errorf("graphql: read gqlgen config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("graphql: parse gqlgen config: %w", err)
	}
	if cfg.Models == nil {
		cfg.Models = make(map[string]TypeMapEntry)
	}
	return &cfg, nil
}

// SaveConfig writes a gqlgen.yml configuration file, creating the
// parent directory when needed.
func SaveConfig(p string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("graphql: marshal gqlgen config: %w", err)
	}
	if dir := filepath.Dir(p); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("graphql: create directory: %w", err)
		}
	}
	return os.WriteFile(p, data, 0o644)
}

// AddSchemaPath adds a schema path if not already present.
func (c *Config) AddSchemaPath(p string) {
	if !slices.Contains(c.SchemaFilename, p) {
		c.SchemaFilename = append(c.SchemaFilename, p)
	}
}

// AddAutobind adds a package to the autobind list if not already
// present.
func (c *Config) AddAutobind(pkg string) {
	if !slices.Contains(c.Autobind, pkg) {
		c.Autobind = append(c.Autobind, pkg)
	}
}

// SetModel adds a model binding for a GraphQL type.
func (c *Config) SetModel(typeName, modelPath string) {
	if c.Models == nil {
		c.Models = make(map[string]TypeMapEntry)
	}
	entry := c.Models[typeName]
	if !slices.Contains(entry.Model, modelPath) {
		entry.Model = append(entry.Model, modelPath)
	}
	c.Models[typeName] = entry
}

// ModelBindings matches the models table against the given sample
// types and returns a type binding for every GraphQL type whose model
// reference names one of the samples. A reference matches a sample
// when its last path element equals the sample's package-qualified
// type name, so "example.com/app/model.Account" binds model.Account.
// Bindings come back in type name order; unmatched entries are
// skipped.
func (c *Config) ModelBindings(samples ...any) []TypeBinding {
	byName := make(map[string]reflect.Type, len(samples))
	for _, sample := range samples {
		if t := classOf(sample); t != nil {
			byName[t.String()] = t
		}
	}
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	var bindings []TypeBinding
	for _, name := range names {
		for _, model := range c.Models[name].Model {
			if t, ok := byName[path.Base(model)]; ok {
				bindings = append(bindings, TypeBinding{name: name, class: t})
				break
			}
		}
	}
	return bindings
}
