// Package gen generates a static metadata provider package from facet
// view declarations.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	View definition (views/*.go)
//	        ↓
//	   facet.View interface + schema/view builders
//	        ↓
//	   load.Projection (loaded representation)
//	        ↓
//	   Graph (validated codegen representation)
//	        ↓
//	   Generated provider package (facetreg/)
//
// # Key Types
//
// The package provides several key types:
//
//   - Graph: Holds all view Types with validation
//   - Type: Represents a view with its direct and computed fields
//   - Config: Global configuration for code generation
//   - Generator: Jennifer-based emitter with parallel workers
//
// # Error Handling
//
// The package uses structured error types for better error handling:
//
//   - ViewError: View definition errors
//   - ConfigError: Configuration errors
//   - GenerationError: Code generation errors
//
// Example error handling:
//
//	graph, err := gen.NewGraph(config, projections...)
//	if err != nil {
//	    if gen.IsViewError(err) {
//	        // Handle view-specific error
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("./facetreg"),
//	    gen.WithFeatures(gen.FeatureEntityFields),
//	)
//
// # Generated Output
//
// The generator produces the following structure:
//
//	{output}/
//	├── provider.go          // New() constructing the facet.Provider
//	├── {view_name}.go       // Per-view metadata constructor
//	├── {viewname}/
//	│   └── {viewname}.go    // Package constants (label, DTO fields)
//	└── internal/            // Optional feature outputs
//	    ├── entityfields.go  // registry/entityfields
//	    └── snapshot.go      // registry/snapshot
//
// Generated files are rendered with Jennifer and formatted with
// goimports, so unused qualifiers never survive to disk.
package gen
