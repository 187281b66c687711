package gen

import (
	"errors"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/facetreg".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = append(c.Features, features...)
		return nil
	}
}

// WithFeatureNames enables features by their flag names.
// Unknown names are rejected with a ConfigError.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			found := false
			for _, f := range AllFeatures {
				if f.Name == name {
					c.Features = append(c.Features, f)
					found = true
					break
				}
			}
			if !found {
				return NewConfigError("Features", name, "unknown feature flag")
			}
		}
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
