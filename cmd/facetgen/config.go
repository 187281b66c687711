package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// defaultConfigPath is where facetgen looks for its configuration when
// no -config flag is given.
const defaultConfigPath = ".facetgen.yml"

// Config is the facetgen configuration, read from .facetgen.yml.
type Config struct {
	// Views is the path(s) to the view definition files, one JSON
	// projection per file as written by load.MarshalView. Entries may
	// be glob patterns.
	Views StringList `yaml:"views,omitempty"`

	// Target is the directory the provider package is generated into.
	Target string `yaml:"target,omitempty"`

	// Package is the import path of the generated package.
	Package string `yaml:"package,omitempty"`

	// Header overrides the header comment of the generated files.
	Header string `yaml:"header,omitempty"`

	// Features lists the enabled codegen feature flags by name.
	Features []string `yaml:"features,omitempty"`
}

// StringList is a YAML type that can be either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
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

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// loadConfig reads the facetgen configuration file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s does not exist (run \"facetgen init\" to create one)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Views) == 0 {
		return nil, fmt.Errorf("%s declares no view definition files", path)
	}
	return &cfg, nil
}

// saveConfig writes the facetgen configuration file.
func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// viewFiles expands the configured view patterns into a sorted list of
// existing files. A pattern that matches nothing is an error, since it
// usually means the definitions were written somewhere else.
func (c *Config) viewFiles() ([]string, error) {
	var files []string
	for _, pattern := range c.Views {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("view pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("view pattern %q matches no files", pattern)
		}
		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

// matchesView reports if the given path belongs to the configured view
// definition files. Watch events carry paths rooted at the directory
// the watcher was added with, so both sides are cleaned before
// matching.
func (c *Config) matchesView(path string) bool {
	path = filepath.Clean(path)
	for _, pattern := range c.Views {
		if ok, err := filepath.Match(filepath.Clean(pattern), path); err == nil && ok {
			return true
		}
	}
	return false
}
