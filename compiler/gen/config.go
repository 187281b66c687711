package gen

// defaultHeader is the header comment added to generated files when no
// custom header is configured.
const defaultHeader = "Code generated by facet. DO NOT EDIT."

// Config holds the global configuration for code generation.
type Config struct {
	// Header is the file header comment added to generated files.
	Header string

	// Package is the Go import path of the generated package.
	// For example: "github.com/org/project/facetreg".
	Package string

	// Target is the output directory for generated code.
	Target string

	// Features holds the enabled code generation features.
	Features []Feature
}

// OutputConfig groups the output-related settings.
type OutputConfig struct {
	Target  string
	Package string
	Header  string
}

// Output returns the grouped output settings.
func (c *Config) Output() OutputConfig {
	return OutputConfig{
		Target:  c.Target,
		Package: c.Package,
		Header:  c.Header,
	}
}

// FeatureEnabled reports if the given feature name is enabled.
// It returns an error for feature names that are not declared.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	known := false
	for _, f := range allFeatures {
		if f.Name == name {
			known = true
			break
		}
	}
	if !known {
		return false, NewConfigError("Features", name, "unknown feature flag")
	}
	return c.HasFeature(name), nil
}

// HasFeature reports if the given feature name appears in the
// configured features.
func (c *Config) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Header: defaultHeader,
	}
}
