// Package graphql turns gqlgen selection sets into entity field lists
// so resolvers can push projection requirements down to their data
// loaders.
//
// The flow has two halves. CollectPaths flattens the selection set of
// the executing resolver into dotted projection paths:
//
//	query { account(id: 1) { name address { city } } }
//
// collects to ["name", "address.city"]. A Translator then maps those
// paths through a facet.Registry for the class bound to the GraphQL
// type:
//
//	tr, err := graphql.NewTranslator(reg,
//	    graphql.BindType("Account", AccountView{}),
//	)
//	...
//	fields, err := tr.EntityFields(ctx, "Account", true)
//	// fields == ["address.city_name", "user_name"]
//
// Paths the registry cannot resolve are dropped, which is what makes
// the translation safe to run on a full selection set: fields served
// by other resolvers, pageInfo subtrees and similar simply contribute
// nothing. Relay connection wrappers bury real fields one level
// deeper; StripSegments removes the wrapper segments before
// translation:
//
//	paths := graphql.StripSegments(graphql.CollectPaths(ctx), "edges", "node")
//	fields, err := tr.TranslatePaths(paths, "Order", true)
//
// Type bindings can be declared in code with BindType or read from an
// existing gqlgen.yml models table with Config.ModelBindings.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/facet"
)

// Translator maps GraphQL type names to projection classes and
// translates selection paths through a registry. It is safe for
// concurrent use.
type Translator struct {
	reg   *facet.Registry
	types map[string]reflect.Type
}

// TypeBinding associates one GraphQL type name with a projection
// class.
type TypeBinding struct {
	name  string
	class reflect.Type
}

// BindType binds a GraphQL type name to a projection class, given as a
// sample value or a reflect.Type.
func BindType(name string, class any) TypeBinding {
	return TypeBinding{name: name, class: classOf(class)}
}

// NewTranslator returns a translator resolving paths through reg for
// the bound types.
func NewTranslator(reg *facet.Registry, bindings ...TypeBinding) (*Translator, error) {
	if reg == nil {
		return nil, errors.New("graphql: nil registry")
	}
	t := &Translator{reg: reg, types: make(map[string]reflect.Type, len(bindings))}
	for _, b := range bindings {
		if b.name == "" {
			return nil, errors.New("graphql: binding with an empty type name")
		}
		if b.class == nil {
			return nil, fmt.Errorf("graphql: binding %q has no class", b.name)
		}
		if _, ok := t.types[b.name]; ok {
			return nil, fmt.Errorf("graphql: type %q bound twice", b.name)
		}
		t.types[b.name] = b.class
	}
	return t, nil
}

// ClassOf returns the projection class bound to the GraphQL type.
func (t *Translator) ClassOf(gqlType string) (reflect.Type, bool) {
	class, ok := t.types[gqlType]
	return class, ok
}

// Types returns the bound GraphQL type names in sorted order.
func (t *Translator) Types() []string {
	names := make([]string, 0, len(t.types))
	for name := range t.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityFields collects the executing resolver's selection set and
// translates it for the class bound to gqlType. Outside a gqlgen
// operation the selection set is empty and so is the result.
func (t *Translator) EntityFields(ctx context.Context, gqlType string, fold bool) ([]string, error) {
	return t.TranslatePaths(CollectPaths(ctx), gqlType, fold)
}

// TranslatePaths resolves each projection path into its entity fields
// for the class bound to gqlType. Unresolvable paths are dropped,
// computed fields contribute every dependency, and the result is
// deduplicated and sorted. Errors other than failed resolution, such
// as a broken provider, are returned.
func (t *Translator) TranslatePaths(paths []string, gqlType string, fold bool) ([]string, error) {
	class, ok := t.types[gqlType]
	if !ok {
		return nil, fmt.Errorf("graphql: no class bound for type %q", gqlType)
	}
	seen := make(map[string]struct{})
	for _, path := range paths {
		resolved, err := t.reg.ToEntityPath(path, class, fold)
		if err != nil {
			if facet.IsUnresolvable(err) {
				continue
			}
			return nil, err
		}
		for _, field := range strings.Split(resolved, ",") {
			seen[field] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, nil
}

// CollectPaths returns the dotted projection paths selected under the
// executing resolver, or nil when ctx carries no gqlgen operation.
func CollectPaths(ctx context.Context) []string {
	if !graphql.HasOperationContext(ctx) {
		return nil
	}
	fc := graphql.GetFieldContext(ctx)
	if fc == nil {
		return nil
	}
	return Paths(graphql.GetOperationContext(ctx), fc.Field.Selections)
}

// Paths flattens a selection set into deduplicated dotted paths, one
// per selected leaf field. Fragments are expanded, duplicate
// selections of one field are merged, and introspection fields are
// skipped. Aliases do not appear in paths; a field contributes its
// schema name no matter how it is aliased.
func Paths(opCtx *graphql.OperationContext, sel ast.SelectionSet) []string {
	var w pathWalker
	w.walk(opCtx, sel, "")
	return w.paths
}

type pathWalker struct {
	paths []string
	seen  map[string]struct{}
}

func (w *pathWalker) walk(opCtx *graphql.OperationContext, sel ast.SelectionSet, prefix string) {
	for _, f := range graphql.CollectFields(opCtx, sel, nil) {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if len(f.Selections) > 0 {
			w.walk(opCtx, f.Selections, path)
			continue
		}
		w.add(path)
	}
}

func (w *pathWalker) add(path string) {
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}
	w.paths = append(w.paths, path)
}

// StripSegments removes the named segments from every path, dropping
// paths with nothing left. Deduplication is preserved.
func StripSegments(paths []string, segments ...string) []string {
	strip := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		strip[s] = struct{}{}
	}
	var (
		out  []string
		seen = make(map[string]struct{}, len(paths))
	)
	for _, path := range paths {
		var kept []string
		for _, seg := range strings.Split(path, ".") {
			if _, ok := strip[seg]; !ok {
				kept = append(kept, seg)
			}
		}
		if len(kept) == 0 {
			continue
		}
		stripped := strings.Join(kept, ".")
		if _, ok := seen[stripped]; ok {
			continue
		}
		seen[stripped] = struct{}{}
		out = append(out, stripped)
	}
	return out
}

// classOf normalizes a sample value or reflect.Type to the class type.
func classOf(class any) reflect.Type {
	t, ok := class.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(class)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
