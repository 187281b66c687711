package gen

import (
	"os"
	"path/filepath"
)

var (
	// FeatureEntityFields provides a feature-flag for precomputed entity
	// field lists. When enabled, the generated package gets an internal
	// table of the entity fields each projection requires, ready for
	// SELECT column lists without a runtime registry.
	FeatureEntityFields = Feature{
		Name:        "registry/entityfields",
		Stage:       Beta,
		Default:     false,
		Description: "Generates precomputed entity field lists per view for query projection pushdown",
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, "internal"), "entityfields.go")
		},
	}

	// FeatureSnapshot stores a snapshot of the loaded view definitions in
	// the generated package. The snapshot lets tooling diff view changes
	// without reloading the view packages.
	FeatureSnapshot = Feature{
		Name:        "registry/snapshot",
		Stage:       Experimental,
		Default:     false,
		Description: "Stores a JSON snapshot of the loaded view definitions inside the generated package",
		cleanup: func(c *Config) error {
			return remove(filepath.Join(c.Target, "internal"), "snapshot.go")
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureEntityFields,
		FeatureSnapshot,
	}
	// allFeatures includes all public and private features.
	allFeatures = AllFeatures
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development, and actively being tested.
	Experimental

	// Alpha features are features whose initial development was finished,
	// but breaking-changes to their APIs are still expected.
	Alpha

	// Beta features are Alpha features that were documented, and no
	// breaking-changes are expected for them.
	Beta

	// Stable features are Beta features that were running for a while.
	Stable
)

// A Feature of the facet codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Config) error
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
