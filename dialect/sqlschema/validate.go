package sqlschema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

// ValidationError is a single finding from checking projection
// metadata against an inspected schema.
type ValidationError struct {
	// Class is the projection class the finding is about.
	Class string

	// Path is the entity path that was checked, empty for findings
	// about the class itself.
	Path string

	// Table and Column locate the failing segment when it could be
	// narrowed down to one.
	Table  string
	Column string

	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Class, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// ValidationResult collects the findings of one validation pass.
// Errors are paths the resolver would hand to a query builder even
// though the database cannot serve them; warnings are suspicious but
// servable.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors reports whether any errors were found.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether any warnings were found.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the findings.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) report(warn bool, e *ValidationError) {
	if warn {
		r.Warnings = append(r.Warnings, e)
	} else {
		r.Errors = append(r.Errors, e)
	}
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	missingAsWarning bool
}

// AllowMissingPath reports entity paths with no backing column as
// warnings instead of errors, for deployments where the schema
// migrates ahead of the declared views.
func AllowMissingPath() ValidateOption {
	return func(c *validateConfig) {
		c.missingAsWarning = true
	}
}

// ValidateClasses checks the projection metadata of the given classes
// against the schema behind src. Every direct mapping and every
// computed dependency must walk existing columns and derived
// relationship fields of the bound tables; a path the schema cannot
// serve is an error. Disagreements between the projected type and the
// column type, including a nullable column projected as a value type,
// are warnings.
//
//	result, err := sqlschema.ValidateClasses(reg, src, classes)
//	if err != nil {
//	    return err
//	}
//	if result.HasErrors() {
//	    log.Fatal("schema drift detected:\n", result)
//	}
func ValidateClasses(reg *facet.Registry, src *Source, classes []reflect.Type, opts ...ValidateOption) (*ValidationResult, error) {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, class := range classes {
		m, err := reg.MetadataFor(class)
		if err != nil {
			return nil, err
		}
		name := typeName(class)
		if m == nil {
			result.report(false, &ValidationError{
				Class:   name,
				Message: "no projection metadata",
			})
			continue
		}
		ent := m.Entity()
		if !src.IsEntity(ent) {
			result.report(false, &ValidationError{
				Class:   name,
				Message: fmt.Sprintf("entity %s is not bound to a table", typeName(ent)),
			})
			continue
		}
		for _, dm := range m.Mappings() {
			if dm.Collection != nil && dm.Collection.Type == view.Transient {
				// Transient collections have no backing columns.
				continue
			}
			checkPath(cfg, result, src, name, ent, dm.EntityField, dm.DTOType)
		}
		for _, cf := range m.Computed() {
			for _, dep := range cf.Dependencies {
				checkPath(cfg, result, src, name, ent, dep, nil)
			}
		}
	}
	return result, nil
}

// ValidatePaths checks explicit entity paths against the class bound
// in src. The paths are entity paths, so resolver output can be
// checked directly:
//
//	path, _ := reg.ToEntityPath("address.city", class, false)
//	result := sqlschema.ValidatePaths(src, entityClass, path)
func ValidatePaths(src *Source, class reflect.Type, paths ...string) *ValidationResult {
	cfg := &validateConfig{}
	result := &ValidationResult{}
	name := typeName(class)
	if !src.IsEntity(class) {
		result.report(false, &ValidationError{
			Class:   name,
			Message: fmt.Sprintf("entity %s is not bound to a table", name),
		})
		return result
	}
	for _, path := range paths {
		checkPath(cfg, result, src, name, indirect(class), path, nil)
	}
	return result
}

// checkPath walks one entity path through the fields derived for the
// bound classes. want carries the projected type of the terminal
// segment when the caller knows it.
func checkPath(cfg *validateConfig, result *ValidationResult, src *Source, class string, ent reflect.Type, path string, want reflect.Type) {
	cur := ent
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		fields, err := src.Fields(cur)
		if err != nil {
			result.report(cfg.missingAsWarning, &ValidationError{
				Class:   class,
				Path:    path,
				Message: fmt.Sprintf("segment %q descends into %s, which is not bound to a table", segments[i-1], typeName(cur)),
			})
			return
		}
		table := ""
		if t, ok := src.Table(cur); ok {
			table = t.Name
		}
		f, ok := fields[seg]
		if !ok {
			result.report(cfg.missingAsWarning, &ValidationError{
				Class:   class,
				Path:    path,
				Table:   table,
				Column:  seg,
				Message: fmt.Sprintf("no column or relationship %q in table %q", seg, table),
			})
			return
		}
		if i == len(segments)-1 {
			checkTerminal(result, class, path, table, seg, f, want)
			return
		}
		cur = indirect(f.Type)
	}
}

// checkTerminal compares the column-derived type of the last segment
// with the projected type. Relationship fields carry the bound class
// rather than a column type and are not compared.
func checkTerminal(result *ValidationResult, class, path, table, column string, f facet.EntityField, want reflect.Type) {
	got := f.Type
	if got == nil || want == nil || f.Collection != nil {
		return
	}
	if got == want {
		return
	}
	if got.Kind() == reflect.Pointer && want.Kind() != reflect.Pointer && got.Elem() == want {
		result.report(true, &ValidationError{
			Class:   class,
			Path:    path,
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf("nullable column projected as %s", typeName(want)),
		})
		return
	}
	gf, wf := typeFamily(got), typeFamily(want)
	if gf != "" && wf != "" && gf != wf {
		result.report(true, &ValidationError{
			Class:   class,
			Path:    path,
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf("column type %s does not match projected type %s", typeName(got), typeName(want)),
		})
	}
}

// typeFamily buckets scalar types for comparison, so int64 columns
// match int projection fields. Types outside the scalar set, entity
// classes included, report an empty family and are never compared.
func typeFamily(t reflect.Type) string {
	t = indirect(t)
	switch t {
	case timeType:
		return "time"
	case uuidType:
		return "uuid"
	case bytesType, rawJSONType:
		return "bytes"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.String:
		return "string"
	}
	return ""
}
