// Package facet maps projection (DTO) classes onto the entities backing
// them and translates projection field paths into entity field paths.
//
// A projection declares, per field, which entity field it reads from.
// Fields are either direct, mapping one projection field onto one
// possibly nested entity path, or computed, derived from one or more
// entity dependencies by a registered computation. The Registry is the
// entry point: it looks up projection metadata by class, synthesizes
// identity metadata for plain entity classes, and resolves dotted
// projection paths such as "address.city" to the entity paths query
// builders sort and filter by.
//
// Projection definitions live in regular Go structs using the
// schema/view DSL:
//
//	type UserView struct {
//	    facet.Projection
//	}
//
//	func (UserView) Entity() any {
//	    return User{}
//	}
//
//	func (UserView) Fields() []facet.ViewField {
//	    return []facet.ViewField{
//	        view.String("name").To("username"),
//	        view.Object("address", AddressView{}).To("address"),
//	    }
//	}
//
// Package facet never executes queries. It resolves names and records
// collection and reducer metadata; running the resulting entity paths
// against a database is the caller's concern.
package facet

import (
	"reflect"

	"github.com/syssam/facet/schema/view"
)

// ViewField is the interface all projection field builders implement.
type ViewField interface {
	Descriptor() *view.Descriptor
}

// View is the interface all projection definitions implement.
type View interface {
	// Entity returns a sample value of the entity class the projection
	// reads from.
	Entity() any

	// Fields returns the projection fields.
	Fields() []ViewField
}

// ViewProviders is implemented by projections that carry computation
// providers. Providers are opaque to the registry; it hands them
// through to whatever runs the computed fields.
type ViewProviders interface {
	Providers() []any
}

// ViewMixins is implemented by projections composed of reusable field
// sets. Mixin fields are loaded before the projection's own fields.
type ViewMixins interface {
	Mixin() []Mixin
}

// Mixin is a reusable set of projection fields shared across views.
// Ready-made mixins live in contrib/mixin.
type Mixin interface {
	Fields() []ViewField
}

// Projection is the default implementation for the View interface.
// It should be embedded in all projection definitions; Entity must be
// declared by the embedding type.
//
// Example:
//
//	type UserView struct {
//	    facet.Projection
//	}
//
//	func (UserView) Entity() any { return User{} }
type Projection struct{}

// Fields returns the projection fields.
// Override this method to declare fields.
func (Projection) Fields() []ViewField { return nil }

// Mixin returns the composed field sets of the projection.
// Override this method to reuse shared fields.
func (Projection) Mixin() []Mixin { return nil }

// Providers returns the computation providers.
// Override this method to register providers for computed fields.
func (Projection) Providers() []any { return nil }

// projections carry providers through this interface.
var _ ViewProviders = (*Projection)(nil)

// Provider supplies projection metadata by class. Implementations must
// be safe for concurrent use; the registry calls Lookup without
// holding any lock of its own.
type Provider interface {
	// Lookup returns the metadata registered for the given class, or
	// false if the class has no explicit projection.
	Lookup(class reflect.Type) (*Metadata, bool)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(reflect.Type) (*Metadata, bool)

// Lookup calls f(class).
func (f ProviderFunc) Lookup(class reflect.Type) (*Metadata, bool) { return f(class) }

// EntitySource describes persistent entity classes to the registry.
// The registry consults it when a class has no explicit projection:
// entity classes get implicit identity metadata, everything else
// resolves to no metadata at all.
type EntitySource interface {
	// IsEntity reports whether class is a persistent entity.
	IsEntity(class reflect.Type) bool

	// Fields returns the persistent fields of class keyed by name.
	Fields(class reflect.Type) (map[string]EntityField, error)
}

// EntityField is one persistent field of an entity class.
type EntityField struct {
	Type       reflect.Type
	Collection *CollectionMetadata
}

// CollectionMetadata is the persistence-side description of a
// collection-valued entity field. It carries the relationship
// attributes the minimal view.CollectionInfo drops.
type CollectionMetadata struct {
	Kind     view.CollectionKind
	Type     view.CollectionType
	MappedBy string // owning field on the element entity, if inverse
	OrderBy  string // entity field the collection is ordered by
}

// Info returns the minimal collection shape carried on direct mappings.
func (c *CollectionMetadata) Info() *view.CollectionInfo {
	if c == nil {
		return nil
	}
	return &view.CollectionInfo{Kind: c.Kind, Type: c.Type}
}
