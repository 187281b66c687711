package facet

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/facet/schema/view"
)

// DirectMapping maps one projection field onto one entity field path.
type DirectMapping struct {
	// DTOField is the projection field name.
	DTOField string

	// EntityField is the entity path the field reads from. It may be
	// nested ("address.cityName").
	EntityField string

	// DTOType is the Go type of the projection field. It is nil when
	// the metadata was loaded without type bindings; resolution cannot
	// descend through such a field.
	DTOType reflect.Type

	// Collection is set when the field is collection-valued.
	Collection *view.CollectionInfo
}

// NestingDepth returns the number of dots in the entity path, zero for
// a plain field.
func (m DirectMapping) NestingDepth() int {
	return strings.Count(m.EntityField, ".")
}

// RootField returns the entity path up to the first dot.
func (m DirectMapping) RootField() string {
	return rootOf(m.EntityField)
}

func (m DirectMapping) validate() error {
	if m.DTOField == "" {
		return fmt.Errorf("direct mapping to %q has an empty dto field", m.EntityField)
	}
	if err := validatePath(m.EntityField); err != nil {
		return fmt.Errorf("direct mapping %q: %w", m.DTOField, err)
	}
	return nil
}

func (m DirectMapping) clone() DirectMapping {
	if m.Collection != nil {
		c := *m.Collection
		m.Collection = &c
	}
	return m
}

// ComputedField derives one projection field from entity dependencies
// instead of a single mapped path.
type ComputedField struct {
	// DTOField is the projection field name.
	DTOField string

	// Dependencies are the entity paths the computation reads, in
	// declaration order. A computed field has at least one.
	Dependencies []string

	// Reducers carry the aggregation for each collection-traversing
	// dependency, in dependency order. They are recorded for query
	// builders, never executed here.
	Reducers []view.Reducer

	// Ref optionally names the computation behind the field.
	Ref *view.MethodRef
}

func (c ComputedField) validate() error {
	if c.DTOField == "" {
		return errors.New("computed field has an empty dto field")
	}
	if len(c.Dependencies) == 0 {
		return fmt.Errorf("computed field %q requires at least one dependency", c.DTOField)
	}
	for _, dep := range c.Dependencies {
		if err := validatePath(dep); err != nil {
			return fmt.Errorf("computed field %q: %w", c.DTOField, err)
		}
	}
	if len(c.Reducers) > len(c.Dependencies) {
		return fmt.Errorf("computed field %q has %d reducers for %d dependencies", c.DTOField, len(c.Reducers), len(c.Dependencies))
	}
	if c.Ref != nil {
		if err := c.Ref.Validate(); err != nil {
			return fmt.Errorf("computed field %q: %w", c.DTOField, err)
		}
	}
	return nil
}

func (c ComputedField) clone() ComputedField {
	c.Dependencies = append([]string(nil), c.Dependencies...)
	c.Reducers = append([]view.Reducer(nil), c.Reducers...)
	if c.Ref != nil {
		r := *c.Ref
		c.Ref = &r
	}
	return c
}

// Metadata is the projection metadata of one class: the entity it reads
// from, its direct mappings, and its computed fields. Metadata is
// immutable after construction; accessors return copies.
type Metadata struct {
	entity    reflect.Type
	mappings  []DirectMapping
	computed  []ComputedField
	providers []any
	mindex    map[string]int
	cindex    map[string]int
}

// MetadataConfig carries the parts of a Metadata under construction.
type MetadataConfig struct {
	Mappings  []DirectMapping
	Computed  []ComputedField
	Providers []any
}

// NewMetadata returns validated projection metadata for the given
// entity, which may be a sample value or a reflect.Type. Field names
// must be unique across direct and computed fields; any violation is
// reported as a ConfigurationError.
func NewMetadata(entity any, cfg MetadataConfig) (*Metadata, error) {
	t := typeOf(entity)
	if t == nil {
		return nil, NewConfigurationError("metadata requires an entity type", nil)
	}
	m := &Metadata{
		entity:    t,
		mappings:  make([]DirectMapping, len(cfg.Mappings)),
		computed:  make([]ComputedField, len(cfg.Computed)),
		providers: append([]any(nil), cfg.Providers...),
		mindex:    make(map[string]int, len(cfg.Mappings)),
		cindex:    make(map[string]int, len(cfg.Computed)),
	}
	for i, dm := range cfg.Mappings {
		if err := dm.validate(); err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("metadata for %s", typeName(t)), err)
		}
		if _, ok := m.mindex[dm.DTOField]; ok {
			return nil, NewConfigurationError(fmt.Sprintf("metadata for %s declares field %q twice", typeName(t), dm.DTOField), nil)
		}
		m.mappings[i] = dm.clone()
		m.mindex[dm.DTOField] = i
	}
	for i, cf := range cfg.Computed {
		if err := cf.validate(); err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("metadata for %s", typeName(t)), err)
		}
		if _, dup := m.mindex[cf.DTOField]; dup {
			return nil, NewConfigurationError(fmt.Sprintf("metadata for %s declares field %q as both direct and computed", typeName(t), cf.DTOField), nil)
		}
		if _, dup := m.cindex[cf.DTOField]; dup {
			return nil, NewConfigurationError(fmt.Sprintf("metadata for %s declares field %q twice", typeName(t), cf.DTOField), nil)
		}
		m.computed[i] = cf.clone()
		m.cindex[cf.DTOField] = i
	}
	return m, nil
}

// Entity returns the entity type the projection reads from.
func (m *Metadata) Entity() reflect.Type {
	return m.entity
}

// Mappings returns the direct mappings in declaration order.
func (m *Metadata) Mappings() []DirectMapping {
	out := make([]DirectMapping, len(m.mappings))
	for i, dm := range m.mappings {
		out[i] = dm.clone()
	}
	return out
}

// Computed returns the computed fields in declaration order.
func (m *Metadata) Computed() []ComputedField {
	out := make([]ComputedField, len(m.computed))
	for i, cf := range m.computed {
		out[i] = cf.clone()
	}
	return out
}

// Providers returns the computation providers as configured. The
// registry passes them through without interpreting them.
func (m *Metadata) Providers() []any {
	return append([]any(nil), m.providers...)
}

// DirectMapping returns the direct mapping with the given name. With
// fold set, the name is matched case-insensitively and the first
// declared match wins.
func (m *Metadata) DirectMapping(name string, fold bool) (*DirectMapping, bool) {
	if fold {
		for i := range m.mappings {
			if strings.EqualFold(m.mappings[i].DTOField, name) {
				dm := m.mappings[i].clone()
				return &dm, true
			}
		}
		return nil, false
	}
	i, ok := m.mindex[name]
	if !ok {
		return nil, false
	}
	dm := m.mappings[i].clone()
	return &dm, true
}

// ComputedField returns the computed field with the given name. With
// fold set, the name is matched case-insensitively and the first
// declared match wins.
func (m *Metadata) ComputedField(name string, fold bool) (*ComputedField, bool) {
	if fold {
		for i := range m.computed {
			if strings.EqualFold(m.computed[i].DTOField, name) {
				cf := m.computed[i].clone()
				return &cf, true
			}
		}
		return nil, false
	}
	i, ok := m.cindex[name]
	if !ok {
		return nil, false
	}
	cf := m.computed[i].clone()
	return &cf, true
}

// RequiredEntityFields returns the entity fields needed to populate the
// projection: the root field of every direct mapping plus every
// dependency of every computed field, deduplicated in first-appearance
// order. The slice is freshly allocated on each call.
func (m *Metadata) RequiredEntityFields() []string {
	seen := make(map[string]struct{}, len(m.mappings)+len(m.computed))
	fields := make([]string, 0, len(m.mappings)+len(m.computed))
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	for i := range m.mappings {
		add(m.mappings[i].RootField())
	}
	for i := range m.computed {
		for _, dep := range m.computed[i].Dependencies {
			add(dep)
		}
	}
	return fields
}

// rootOf returns the path up to the first dot.
func rootOf(path string) string {
	root, _, _ := strings.Cut(path, ".")
	return root
}

// validatePath checks a dotted entity path for emptiness and empty
// segments.
func validatePath(path string) error {
	if path == "" {
		return errors.New("empty entity path")
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("entity path %q has an empty segment", path)
		}
	}
	return nil
}

// typeOf normalizes a sample value or a reflect.Type to the underlying
// non-pointer type.
func typeOf(v any) reflect.Type {
	if v == nil {
		return nil
	}
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// typeName renders a type for error messages.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
