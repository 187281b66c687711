// Package entity describes persistent entity classes to the facet
// registry by reflection. A Set scans plain entity structs and serves
// their persistent fields as a facet.EntitySource, which is what the
// registry consults when a class has no explicit projection.
//
// Every exported struct field becomes a persistent field named by the
// snake_case form of its Go name. The `facet` struct tag adjusts the
// scan:
//
//	type Order struct {
//		ID       uuid.UUID
//		Number   string      `facet:"order_number"`
//		Internal string      `facet:"-"`
//		Draft    bool        `facet:",transient"`
//		Lines    []OrderLine `facet:",mappedBy=order,orderBy=position"`
//		Tags     []string    `facet:",kind=set"`
//	}
//
// The first tag element renames the field. The options are "transient"
// (a transient collection keeps its shape with a transient marker, any
// other transient field is dropped from the persistent model),
// "mappedBy=<field>" and "orderBy=<field>" for collection
// relationships, and "kind=<kind>" to override the collection kind.
// Fields of kinds that cannot be persisted (chan, func, interface) are
// ignored.
package entity

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

// Set is a fixed set of entity classes scanned by reflection. It
// implements facet.EntitySource and is safe for concurrent use after
// construction.
type Set struct {
	classes map[reflect.Type]map[string]facet.EntityField
}

// NewSet scans the given entity samples, values or pointers to structs.
func NewSet(samples ...any) (*Set, error) {
	s := &Set{classes: make(map[reflect.Type]map[string]facet.EntityField, len(samples))}
	for _, sample := range samples {
		t := indirect(reflect.TypeOf(sample))
		if t == nil || t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("entity: sample %T is not a struct", sample)
		}
		if _, ok := s.classes[t]; ok {
			return nil, fmt.Errorf("entity: %s registered twice", t.Name())
		}
		fields, err := scanFields(t)
		if err != nil {
			return nil, err
		}
		s.classes[t] = fields
	}
	return s, nil
}

// MustSet is like NewSet but panics on error. Intended for package
// variable initialization.
func MustSet(samples ...any) *Set {
	s, err := NewSet(samples...)
	if err != nil {
		panic(err)
	}
	return s
}

// IsEntity reports whether class is one of the scanned entity classes.
// Pointer classes resolve to their element.
func (s *Set) IsEntity(class reflect.Type) bool {
	_, ok := s.classes[indirect(class)]
	return ok
}

// Fields returns a copy of the persistent fields of class keyed by
// name.
func (s *Set) Fields(class reflect.Type) (map[string]facet.EntityField, error) {
	fields, ok := s.classes[indirect(class)]
	if !ok {
		return nil, fmt.Errorf("entity: %s is not a registered entity", typeName(class))
	}
	out := make(map[string]facet.EntityField, len(fields))
	for name, f := range fields {
		out[name] = f
	}
	return out, nil
}

// Classes returns the scanned entity classes in registration-independent
// name order.
func (s *Set) Classes() []reflect.Type {
	classes := make([]reflect.Type, 0, len(s.classes))
	for t := range s.classes {
		classes = append(classes, t)
	}
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j].Name() < classes[j-1].Name(); j-- {
			classes[j], classes[j-1] = classes[j-1], classes[j]
		}
	}
	return classes
}

// scanFields builds the persistent field map of one entity struct.
// Embedded structs contribute their promoted fields.
func scanFields(t reflect.Type) (map[string]facet.EntityField, error) {
	fields := make(map[string]facet.EntityField)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		opts, err := parseTag(f.Tag.Get("facet"))
		if err != nil {
			return nil, fmt.Errorf("entity: %s.%s: %w", t.Name(), f.Name, err)
		}
		if opts.skip {
			continue
		}
		name := opts.name
		if name == "" {
			name = snake(f.Name)
		}
		if _, ok := fields[name]; ok {
			return nil, fmt.Errorf("entity: %s declares field %q twice", t.Name(), name)
		}
		ef, ok, err := classify(f.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("entity: %s.%s: %w", t.Name(), f.Name, err)
		}
		if !ok {
			continue
		}
		fields[name] = ef
	}
	return fields, nil
}

// classify maps a Go field type to its persistent description. The
// second return is false for fields that have no persistent form.
func classify(ft reflect.Type, opts tagOptions) (facet.EntityField, bool, error) {
	base := ft
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case isScalar(base):
		if err := opts.nonCollection(); err != nil {
			return facet.EntityField{}, false, err
		}
		if opts.transient {
			return facet.EntityField{}, false, nil
		}
		return facet.EntityField{Type: ft}, true, nil
	case base.Kind() == reflect.Slice:
		return collectionField(base.Elem(), view.KindList, opts)
	case base.Kind() == reflect.Map:
		return collectionField(base.Elem(), view.KindMap, opts)
	case base.Kind() == reflect.Struct:
		if err := opts.nonCollection(); err != nil {
			return facet.EntityField{}, false, err
		}
		if opts.transient {
			return facet.EntityField{}, false, nil
		}
		return facet.EntityField{Type: base}, true, nil
	default:
		return facet.EntityField{}, false, nil
	}
}

// collectionField describes a collection-valued field. The entity field
// type is the collection element, which is what nested path resolution
// descends into.
func collectionField(elem reflect.Type, kind view.CollectionKind, opts tagOptions) (facet.EntityField, bool, error) {
	if opts.hasKind {
		kind = opts.kind
	}
	ctype := view.Persistent
	if opts.transient {
		ctype = view.Transient
	}
	return facet.EntityField{
		Type: indirect(elem),
		Collection: &facet.CollectionMetadata{
			Kind:     kind,
			Type:     ctype,
			MappedBy: opts.mappedBy,
			OrderBy:  opts.orderBy,
		},
	}, true, nil
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.Nil)
	bytesType = reflect.TypeOf([]byte(nil))
)

// isScalar reports whether t maps to a single persistent value.
func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	switch t {
	case timeType, uuidType, bytesType:
		return true
	}
	return false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
