package snapshot

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

// Bindings maps serialized type names to the Go types of the loading
// process.
type Bindings map[string]reflect.Type

// BindTypes builds Bindings from sample values, keyed by their
// package-qualified type names. Pointer samples bind their element
// type.
func BindTypes(samples ...any) Bindings {
	b := make(Bindings, len(samples))
	for _, sample := range samples {
		t := reflect.TypeOf(sample)
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t != nil {
			b[t.String()] = t
		}
	}
	return b
}

// Table is the fixed provider a snapshot loads into. It implements
// facet.Provider and is safe for concurrent use.
type Table struct {
	classes map[reflect.Type]*facet.Metadata
}

var _ facet.Provider = (*Table)(nil)

// Lookup returns the loaded metadata for class.
func (t *Table) Lookup(class reflect.Type) (*facet.Metadata, bool) {
	m, ok := t.classes[class]
	return m, ok
}

// Classes returns the loaded classes sorted by type name.
func (t *Table) Classes() []reflect.Type {
	classes := make([]reflect.Type, 0, len(t.classes))
	for c := range t.classes {
		classes = append(classes, c)
	}
	slices.SortFunc(classes, func(a, b reflect.Type) int {
		return strings.Compare(a.String(), b.String())
	})
	return classes
}

// Len returns the number of loaded classes.
func (t *Table) Len() int { return len(t.classes) }

// Load rebuilds a provider from an Encode payload. Classes whose own
// type or entity type has no binding are dropped; everything else is
// validated the same way directly constructed metadata is.
func Load(data []byte, bindings Bindings) (*Table, error) {
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return load(&p, bindings)
}

// Read is Load from a reader.
func Read(r io.Reader, bindings Bindings) (*Table, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return load(&p, bindings)
}

func load(p *payload, bindings Bindings) (*Table, error) {
	if p.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported payload version %d", p.Version)
	}
	t := &Table{classes: make(map[reflect.Type]*facet.Metadata, len(p.Classes))}
	for _, c := range p.Classes {
		class, ok := bindings[c.Name]
		if !ok {
			continue
		}
		entity, ok := bindings[c.Entity]
		if !ok {
			continue
		}
		m, err := decodeClass(entity, c, bindings)
		if err != nil {
			return nil, fmt.Errorf("snapshot: load %s: %w", c.Name, err)
		}
		t.classes[class] = m
	}
	return t, nil
}

func decodeClass(entity reflect.Type, c class, bindings Bindings) (*facet.Metadata, error) {
	cfg := facet.MetadataConfig{}
	for _, enc := range c.Mappings {
		dm := facet.DirectMapping{
			DTOField:    enc.DTOField,
			EntityField: enc.EntityField,
			DTOType:     bindings[enc.DTOType],
		}
		if enc.Collection != nil {
			kind, err := view.ParseKind(enc.Collection.Kind)
			if err != nil {
				return nil, err
			}
			ct, err := view.ParseType(enc.Collection.Type)
			if err != nil {
				return nil, err
			}
			dm.Collection = &view.CollectionInfo{Kind: kind, Type: ct}
		}
		cfg.Mappings = append(cfg.Mappings, dm)
	}
	for _, enc := range c.Computed {
		cf := facet.ComputedField{
			DTOField:     enc.DTOField,
			Dependencies: enc.Dependencies,
		}
		for _, r := range enc.Reducers {
			cf.Reducers = append(cf.Reducers, view.Reducer(r))
		}
		if ref, ok := decodeMethod(enc.Method, bindings); ok {
			cf.Ref = &ref
		}
		cfg.Computed = append(cfg.Computed, cf)
	}
	return facet.NewMetadata(entity, cfg)
}

// decodeMethod rebinds a method reference, degrading to a name-only
// reference when the target type is not bound.
func decodeMethod(enc *method, bindings Bindings) (view.MethodRef, bool) {
	if enc == nil {
		return view.MethodRef{}, false
	}
	target := bindings[enc.Target]
	switch {
	case target != nil && enc.Method != "":
		return view.By(target, enc.Method), true
	case target != nil:
		return view.ByType(target), true
	case enc.Method != "":
		return view.ByName(enc.Method), true
	}
	return view.MethodRef{}, false
}
