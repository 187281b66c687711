package facet

import (
	"reflect"
	"sort"
)

// implicitMetadata synthesizes identity metadata for an entity class:
// one direct mapping per persistent field, each projecting the field
// onto itself. Fields are ordered by name so repeated syntheses of the
// same class agree. The synthesis is pure and runs again on every
// lookup; repeated path resolutions are absorbed by the path cache
// instead.
func implicitMetadata(class reflect.Type, fields map[string]EntityField) (*Metadata, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	mappings := make([]DirectMapping, 0, len(names))
	for _, name := range names {
		f := fields[name]
		mappings = append(mappings, DirectMapping{
			DTOField:    name,
			EntityField: name,
			DTOType:     f.Type,
			Collection:  f.Collection.Info(),
		})
	}
	return NewMetadata(class, MetadataConfig{Mappings: mappings})
}
