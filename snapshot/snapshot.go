// Package snapshot serializes projection metadata so a precomputed
// registry can be handed to another process. Encode captures the
// resolved metadata of a set of classes from a registry as a compact
// msgpack payload; Load rebuilds a facet.Provider from it by binding
// the serialized type names back to Go types.
//
// Types do not travel. A snapshot stores the package-qualified name of
// every type it references (as rendered by reflect.Type.String), and
// the loading side supplies the mapping back:
//
//	data, err := snapshot.Encode(reg,
//	    reflect.TypeOf(AccountView{}),
//	    reflect.TypeOf(OrderView{}),
//	)
//	...
//	provider, err := snapshot.Load(data, snapshot.BindTypes(
//	    AccountView{}, Account{},
//	    OrderView{}, Order{},
//	))
//	reg, err := facet.NewRegistry(provider)
//
// A class is rebuilt only when both its own type and its entity type
// are bound; classes the loading process does not know are dropped.
// Field types without a binding load as nil, which keeps the field
// resolvable as a terminal path segment only. Runtime computation
// providers are not serialized.
package snapshot

import (
	"fmt"
	"io"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/facet"
)

// Version is the payload version written by Encode. Load rejects
// payloads written with a different version.
const Version = 1

// payload is the top-level wire shape.
type payload struct {
	Version int     `msgpack:"version"`
	Classes []class `msgpack:"classes"`
}

type class struct {
	Name     string     `msgpack:"name"`
	Entity   string     `msgpack:"entity"`
	Mappings []mapping  `msgpack:"mappings"`
	Computed []computed `msgpack:"computed,omitempty"`
}

type mapping struct {
	DTOField    string      `msgpack:"dto_field"`
	EntityField string      `msgpack:"entity_field"`
	DTOType     string      `msgpack:"dto_type,omitempty"`
	Collection  *collection `msgpack:"collection,omitempty"`
}

type collection struct {
	Kind string `msgpack:"kind"`
	Type string `msgpack:"type"`
}

type computed struct {
	DTOField     string   `msgpack:"dto_field"`
	Dependencies []string `msgpack:"deps"`
	Reducers     []string `msgpack:"reducers,omitempty"`
	Method       *method  `msgpack:"method,omitempty"`
}

type method struct {
	Target string `msgpack:"target,omitempty"`
	Method string `msgpack:"method,omitempty"`
}

// Encode serializes the metadata the registry resolves for the given
// classes, explicit and implicit alike. The classes are written in the
// given order, so the same arguments produce the same payload.
func Encode(reg *facet.Registry, classes ...reflect.Type) ([]byte, error) {
	p, err := build(reg, classes)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Write is Encode streamed to a writer.
func Write(w io.Writer, reg *facet.Registry, classes ...reflect.Type) error {
	p, err := build(reg, classes)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

func build(reg *facet.Registry, classes []reflect.Type) (*payload, error) {
	p := &payload{Version: Version, Classes: make([]class, 0, len(classes))}
	for _, c := range classes {
		m, err := reg.MetadataFor(c)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", nameOf(c), err)
		}
		if m == nil {
			return nil, fmt.Errorf("snapshot: no projection metadata for %s", nameOf(c))
		}
		p.Classes = append(p.Classes, encodeClass(c, m))
	}
	return p, nil
}

func encodeClass(c reflect.Type, m *facet.Metadata) class {
	out := class{Name: nameOf(c), Entity: nameOf(m.Entity())}
	for _, dm := range m.Mappings() {
		enc := mapping{
			DTOField:    dm.DTOField,
			EntityField: dm.EntityField,
			DTOType:     nameOf(dm.DTOType),
		}
		if dm.Collection != nil {
			enc.Collection = &collection{
				Kind: dm.Collection.Kind.String(),
				Type: dm.Collection.Type.String(),
			}
		}
		out.Mappings = append(out.Mappings, enc)
	}
	for _, cf := range m.Computed() {
		enc := computed{
			DTOField:     cf.DTOField,
			Dependencies: cf.Dependencies,
		}
		for _, r := range cf.Reducers {
			enc.Reducers = append(enc.Reducers, string(r))
		}
		if cf.Ref != nil {
			enc.Method = &method{
				Target: nameOf(cf.Ref.Target()),
				Method: cf.Ref.Method(),
			}
		}
		out.Computed = append(out.Computed, enc)
	}
	return out
}

// nameOf renders the package-qualified type name, empty for nil.
func nameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
