package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/facet/compiler/load"
)

// The following types and their exported methods are used by the
// codegen to generate the provider assets.
type (
	// Graph holds all the loaded view types that participate in one
	// code generation run.
	Graph struct {
		Config *Config
		// Views holds all view types in the graph.
		Views []*Type
	}

	// Type represents one view type in the graph and the projection
	// information it holds.
	Type struct {
		*Config
		projection *load.Projection
		// Name holds the view type name.
		Name string
		// Pkg is the import path of the package declaring the view.
		Pkg string
		// Entity is the mapped entity type name.
		Entity string
		// EntityPkg is the import path of the entity package.
		EntityPkg string
		// Fields holds the direct fields of the view.
		Fields []*load.Field
		// Computed holds the computed fields of the view.
		Computed []*load.Computed
	}
)

// NewGraph creates a new graph for the given config and loaded views.
func NewGraph(c *Config, projections ...*load.Projection) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "configuration is required")
	}
	g := &Graph{Config: c, Views: make([]*Type, 0, len(projections))}
	seen := make(map[string]struct{}, len(projections))
	for _, p := range projections {
		t, err := NewType(c, p)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[t.Name]; ok {
			return nil, NewViewError(t.Name, "", "view declared twice", nil)
		}
		seen[t.Name] = struct{}{}
		g.Views = append(g.Views, t)
	}
	return g, nil
}

// NewType creates a new view type and validates its projection.
func NewType(c *Config, p *load.Projection) (*Type, error) {
	if err := ValidViewName(p.Name); err != nil {
		return nil, err
	}
	t := &Type{
		Config:     c,
		projection: p,
		Name:       p.Name,
		Pkg:        p.Pkg,
		Entity:     p.Entity,
		EntityPkg:  p.EntityPkg,
		Fields:     p.Fields,
		Computed:   p.Computed,
	}
	if t.Pkg == "" {
		return nil, NewViewError(t.Name, "", "view package is unknown", nil)
	}
	if t.Entity == "" {
		return nil, NewViewError(t.Name, "", "entity is not declared", nil)
	}
	seen := make(map[string]struct{}, len(t.Fields)+len(t.Computed))
	declare := func(name string) error {
		if name == "" {
			return NewViewError(t.Name, "", "field name cannot be empty", nil)
		}
		if _, ok := seen[name]; ok {
			return NewViewError(t.Name, name, "field declared twice", nil)
		}
		seen[name] = struct{}{}
		return nil
	}
	for _, f := range t.Fields {
		if err := declare(f.Name); err != nil {
			return nil, err
		}
		if f.Entity == "" {
			return nil, NewViewError(t.Name, f.Name, "missing entity field", nil)
		}
	}
	for _, cf := range t.Computed {
		if err := declare(cf.Name); err != nil {
			return nil, err
		}
		if len(cf.Deps) == 0 {
			return nil, NewViewError(t.Name, cf.Name, "computed field requires at least one dependency", nil)
		}
		if len(cf.Reducers) > len(cf.Deps) {
			msg := fmt.Sprintf("%d reducers for %d dependencies", len(cf.Reducers), len(cf.Deps))
			return nil, NewViewError(t.Name, cf.Name, msg, nil)
		}
	}
	return t, nil
}

// PackageDir returns the directory name of the view constants package.
func (t *Type) PackageDir() string {
	return strings.ToLower(t.Name)
}

// FileName returns the generated file name for this view.
func (t *Type) FileName() string {
	return snake(t.Name) + ".go"
}

// MetadataFunc returns the name of the generated metadata constructor.
func (t *Type) MetadataFunc() string {
	return camel(t.Name) + "Metadata"
}

// EntityFields returns the entity fields this projection requires:
// the root fields of all direct mappings and the full dependency paths
// of all computed fields, deduplicated in declaration order.
func (t *Type) EntityFields() []string {
	fields := make([]string, 0, len(t.Fields)+len(t.Computed))
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			fields = append(fields, name)
		}
	}
	for _, f := range t.Fields {
		root := f.Entity
		if i := strings.IndexByte(root, '.'); i >= 0 {
			root = root[:i]
		}
		add(root)
	}
	for _, cf := range t.Computed {
		for _, dep := range cf.Deps {
			add(dep)
		}
	}
	return fields
}
