package view

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// A Reducer names the aggregation applied when a computed dependency
// traverses a collection. Reducers are carried as metadata for query
// builders; nothing in this module executes them.
type Reducer string

// Reducers commonly understood by query builders.
const (
	Sum   Reducer = "SUM"
	Avg   Reducer = "AVG"
	Count Reducer = "COUNT"
	Min   Reducer = "MIN"
	Max   Reducer = "MAX"
)

// TypeInfo holds the Go type of a projection field. RType is dropped on
// serialization; the loader restores it from the identifier when the
// type is bound again.
type TypeInfo struct {
	RType    reflect.Type `json:"-"`
	Ident    string       `json:"ident,omitempty"`
	PkgPath  string       `json:"pkg_path,omitempty"`
	Kind     reflect.Kind `json:"kind,omitempty"`
	Nillable bool         `json:"nillable,omitempty"`
}

// String returns the type identifier.
func (t TypeInfo) String() string {
	switch {
	case t.Ident != "":
		return t.Ident
	case t.RType != nil:
		return t.RType.String()
	default:
		return t.Kind.String()
	}
}

// A Descriptor is the accumulated configuration of one projection field,
// direct or computed. Builders report invalid input through Err instead
// of panicking; the loader checks it.
type Descriptor struct {
	Name       string          // projection field name
	Entity     string          // mapped entity field path; defaults to Name
	Info       *TypeInfo       // projection field type
	Collection *CollectionInfo // collection shape, if any
	Computed   bool            // derived from Deps instead of Entity
	Deps       []string        // entity dependencies of a computed field
	Reducers   []Reducer       // reducers for collection-traversing deps
	Ref        *MethodRef      // optional computation reference
	Err        error           // first build error
}

// FieldBuilder is the builder for direct projection fields.
type FieldBuilder struct {
	desc *Descriptor
}

func newField(name string, t reflect.Type) *FieldBuilder {
	b := &FieldBuilder{desc: &Descriptor{Name: name}}
	if name == "" {
		b.desc.Err = errors.New("field name cannot be empty")
	}
	b.desc.Info = infoOf(t, false)
	return b
}

// String returns a new string field with the given name.
func String(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(""))
}

// Int returns a new int field with the given name.
func Int(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(int(0)))
}

// Float returns a new float64 field with the given name.
func Float(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(float64(0)))
}

// Bool returns a new bool field with the given name.
func Bool(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(false))
}

// Time returns a new time.Time field with the given name.
func Time(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(time.Time{}))
}

// UUID returns a new uuid.UUID field with the given name.
func UUID(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf(uuid.Nil))
}

// Bytes returns a new []byte field with the given name.
func Bytes(name string) *FieldBuilder {
	return newField(name, reflect.TypeOf([]byte(nil)))
}

// Object returns a new field whose type is taken from the given sample
// value, typically a nested projection or entity struct. Pointers are
// dereferenced.
func Object(name string, sample any) *FieldBuilder {
	b := &FieldBuilder{desc: &Descriptor{Name: name}}
	if name == "" {
		b.desc.Err = errors.New("field name cannot be empty")
	}
	if sample == nil {
		if b.desc.Err == nil {
			b.desc.Err = fmt.Errorf("nil object sample for field %q", name)
		}
		return b
	}
	t := reflect.TypeOf(sample)
	b.desc.Info = infoOf(indirect(t), t.Kind() == reflect.Ptr)
	return b
}

// To sets the entity field path the projection field maps to. The path
// may be nested ("address.zipCode"). If To is never called, the field
// maps to the entity field with the same name.
func (b *FieldBuilder) To(entityField string) *FieldBuilder {
	if entityField == "" && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("empty entity field for %q", b.desc.Name)
	}
	b.desc.Entity = entityField
	return b
}

// Collection marks the field as collection-valued with the given kind.
func (b *FieldBuilder) Collection(kind CollectionKind) *FieldBuilder {
	if b.desc.Collection == nil {
		b.desc.Collection = &CollectionInfo{}
	}
	b.desc.Collection.Kind = kind
	return b
}

// List marks the field as a list collection.
func (b *FieldBuilder) List() *FieldBuilder {
	return b.Collection(KindList)
}

// Set marks the field as a set collection.
func (b *FieldBuilder) Set() *FieldBuilder {
	return b.Collection(KindSet)
}

// Transient marks the collection as transient, i.e. filled at runtime
// rather than backed by the entity model.
func (b *FieldBuilder) Transient() *FieldBuilder {
	if b.desc.Collection == nil {
		b.desc.Collection = &CollectionInfo{}
	}
	b.desc.Collection.Type = Transient
	return b
}

// Descriptor implements the field builder interface.
func (b *FieldBuilder) Descriptor() *Descriptor {
	return b.desc
}

// ComputedBuilder is the builder for computed projection fields.
type ComputedBuilder struct {
	desc *Descriptor
}

// Computed returns a new computed field with the given name. A computed
// field must require at least one entity dependency.
func Computed(name string) *ComputedBuilder {
	b := &ComputedBuilder{desc: &Descriptor{Name: name, Computed: true}}
	if name == "" {
		b.desc.Err = errors.New("computed field name cannot be empty")
	}
	return b
}

// Requires appends entity field paths the computed field depends on.
func (b *ComputedBuilder) Requires(deps ...string) *ComputedBuilder {
	for _, d := range deps {
		if d == "" && b.desc.Err == nil {
			b.desc.Err = fmt.Errorf("empty dependency for computed field %q", b.desc.Name)
		}
	}
	b.desc.Deps = append(b.desc.Deps, deps...)
	return b
}

// Reduce appends reducers, one per collection-traversing dependency, in
// dependency order.
func (b *ComputedBuilder) Reduce(reducers ...Reducer) *ComputedBuilder {
	for _, r := range reducers {
		if r == "" && b.desc.Err == nil {
			b.desc.Err = fmt.Errorf("empty reducer for computed field %q", b.desc.Name)
		}
	}
	b.desc.Reducers = append(b.desc.Reducers, reducers...)
	return b
}

// Via sets the method reference naming the computation provider.
func (b *ComputedBuilder) Via(ref MethodRef) *ComputedBuilder {
	if err := ref.Validate(); err != nil && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("computed field %q: %w", b.desc.Name, err)
	}
	b.desc.Ref = &ref
	return b
}

// Descriptor implements the field builder interface.
func (b *ComputedBuilder) Descriptor() *Descriptor {
	return b.desc
}

func infoOf(t reflect.Type, nillable bool) *TypeInfo {
	if t == nil {
		return nil
	}
	return &TypeInfo{
		RType:    t,
		Ident:    t.String(),
		PkgPath:  t.PkgPath(),
		Kind:     t.Kind(),
		Nillable: nillable,
	}
}
