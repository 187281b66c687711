package facet

import (
	"fmt"
	"reflect"
	"strings"
)

// resolvePath resolves path against the metadata of class, wrapping any
// failure in a ResolutionError that carries the full original path.
func (r *Registry) resolvePath(path string, class reflect.Type, fold bool) (string, error) {
	resolved, err := r.resolveSegments(path, class, fold, "")
	if err != nil {
		return "", NewResolutionError(path, err)
	}
	return resolved, nil
}

// resolveSegments resolves path one segment at a time, with prefix
// holding the entity path accumulated so far. Computed fields are
// checked before direct mappings and terminate the walk; a direct
// mapping with remaining segments recurses into the field's type.
func (r *Registry) resolveSegments(path string, class reflect.Type, fold bool, prefix string) (string, error) {
	head, rest, nested := strings.Cut(path, ".")
	if head == "" {
		return "", fmt.Errorf("empty segment: %w", ErrUnresolvable)
	}
	m, err := r.MetadataFor(class)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", fmt.Errorf("no projection metadata for %s: %w", typeName(class), ErrUnresolvable)
	}
	if cf, ok := m.ComputedField(head, fold); ok {
		if nested {
			return "", fmt.Errorf("computed field %q is terminal, cannot descend into %q: %w", cf.DTOField, rest, ErrUnresolvable)
		}
		return expandComputed(cf, prefix), nil
	}
	if dm, ok := m.DirectMapping(head, fold); ok {
		resolved := joinPath(prefix, dm.EntityField)
		if !nested {
			return resolved, nil
		}
		return r.resolveSegments(rest, dm.DTOType, fold, resolved)
	}
	return "", fmt.Errorf("no mapping for segment %q: %w", head, ErrUnresolvable)
}

// expandComputed renders a computed field as its dependency list: each
// dependency prefixed with the entity path accumulated so far, joined
// by commas.
func expandComputed(cf *ComputedField, prefix string) string {
	if prefix == "" {
		return strings.Join(cf.Dependencies, ",")
	}
	parts := make([]string, len(cf.Dependencies))
	for i, dep := range cf.Dependencies {
		parts[i] = prefix + "." + dep
	}
	return strings.Join(parts, ",")
}

// joinPath appends an entity path to the accumulated prefix.
func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}
	return prefix + "." + path
}
