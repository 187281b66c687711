// Package sqlschema builds facet entity metadata from an inspected SQL
// schema. It is the database-first counterpart of the entity package:
// instead of scanning struct tags it reads the tables of a schema (as
// described by ariga.io/atlas) and binds them to sample struct types.
// The resulting Source implements facet.EntitySource, so projection
// paths resolve against the real column names of the database.
//
// # Binding
//
// Every table that should act as an entity class is bound to a sample
// struct. Bind names the table explicitly:
//
//	src, err := sqlschema.FromTables(tables,
//	    sqlschema.Bind("users", User{}),
//	    sqlschema.Bind("posts", Post{}),
//	)
//
// Samples derives the table name from the sample type with the entity
// naming conventions, so User binds to "users" and OrderLine to
// "order_lines":
//
//	src, err := sqlschema.FromTables(tables, sqlschema.Samples(User{}, Post{})...)
//
// Columns that should stay out of the projection model can be hidden
// per binding:
//
//	sqlschema.Bind("users", User{}).Skip("password_hash")
//
// # Derived Fields
//
// Columns become scalar fields named after the column, with nullable
// columns reported as pointer types. A single-column foreign key
// between two bound tables derives a relationship pair: the
// referencing class gets a reference field named after the key column
// without its "_id" suffix, and the referenced class gets a list
// collection named after the referencing table, mapped by that
// reference. A key covered by a unique index is one-to-one and derives
// no collection. Tables without a binding still exist in the schema
// but contribute no fields.
//
// # Inspection
//
// Inspect reads a live schema through the ariga.io/atlas drivers:
//
//	tables, err := sqlschema.Inspect(ctx, db, dialect.Postgres, sqlschema.WithSchema("public"))
//	if err != nil {
//	    return err
//	}
//	src, err := sqlschema.FromTables(tables, sqlschema.Samples(User{}, Post{})...)
package sqlschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"ariga.io/atlas/sql/schema"
	"github.com/google/uuid"

	"github.com/syssam/facet"
	"github.com/syssam/facet/entity"
	"github.com/syssam/facet/schema/view"
)

// Binding associates one table with the struct type that stands in for
// it on the projection side.
type Binding struct {
	table   string
	sample  any
	skip    []string
	ordered []columnOrder
}

type columnOrder struct {
	collection string
	column     string
}

// Bind associates the named table with a sample struct type.
func Bind(table string, sample any) Binding {
	return Binding{table: table, sample: sample}
}

// Samples binds each sample to its conventional table name, derived
// the same way entity.TableName derives it.
func Samples(samples ...any) []Binding {
	bindings := make([]Binding, len(samples))
	for i, sample := range samples {
		bindings[i] = Binding{sample: sample}
	}
	return bindings
}

// Skip hides the named columns from the bound entity. A foreign key
// whose key column is hidden derives no relationship fields.
func (b Binding) Skip(columns ...string) Binding {
	b.skip = append(b.skip[:len(b.skip):len(b.skip)], columns...)
	return b
}

// OrderBy reports the named collection as ordered by a column of the
// element table.
func (b Binding) OrderBy(collection, column string) Binding {
	b.ordered = append(b.ordered[:len(b.ordered):len(b.ordered)], columnOrder{collection, column})
	return b
}

// Source is an inspected SQL schema exposed as a facet.EntitySource.
// It is safe for concurrent use after construction.
type Source struct {
	classes map[reflect.Type]map[string]facet.EntityField
	tables  map[reflect.Type]*schema.Table
	bound   map[string]*binding
}

var _ facet.EntitySource = (*Source)(nil)

// binding is a Binding resolved against the inspected tables.
type binding struct {
	table   *schema.Table
	class   reflect.Type
	skip    []string
	ordered []columnOrder
}

func (b *binding) skipped(column string) bool {
	return slices.Contains(b.skip, column)
}

func (b *binding) orderOf(collection string) string {
	for _, o := range b.ordered {
		if o.collection == collection {
			return o.column
		}
	}
	return ""
}

// FromTables builds a Source from inspected tables and their bindings.
func FromTables(tables []*schema.Table, bindings ...Binding) (*Source, error) {
	byName := make(map[string]*schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	src := &Source{
		classes: make(map[reflect.Type]map[string]facet.EntityField, len(bindings)),
		tables:  make(map[reflect.Type]*schema.Table, len(bindings)),
		bound:   make(map[string]*binding, len(bindings)),
	}
	resolved := make([]*binding, 0, len(bindings))
	for _, b := range bindings {
		rb, err := resolve(b, byName)
		if err != nil {
			return nil, err
		}
		if _, ok := src.bound[rb.table.Name]; ok {
			return nil, fmt.Errorf("sqlschema: table %q bound twice", rb.table.Name)
		}
		if _, ok := src.tables[rb.class]; ok {
			return nil, fmt.Errorf("sqlschema: %s bound twice", rb.class)
		}
		src.bound[rb.table.Name] = rb
		src.tables[rb.class] = rb.table
		resolved = append(resolved, rb)
	}
	// Scalar columns first so relationship fields can detect name
	// collisions against them.
	for _, rb := range resolved {
		fields := make(map[string]facet.EntityField, len(rb.table.Columns))
		for _, col := range rb.table.Columns {
			if rb.skipped(col.Name) {
				continue
			}
			fields[col.Name] = facet.EntityField{Type: columnType(col)}
		}
		src.classes[rb.class] = fields
	}
	for _, rb := range resolved {
		for _, fk := range rb.table.ForeignKeys {
			src.link(rb, fk)
		}
	}
	return src, nil
}

func resolve(b Binding, byName map[string]*schema.Table) (*binding, error) {
	if b.sample == nil {
		return nil, errors.New("sqlschema: nil sample")
	}
	class := indirect(reflect.TypeOf(b.sample))
	if class.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sqlschema: sample %T is not a struct", b.sample)
	}
	name := b.table
	if name == "" {
		if name = entity.TableName(class); name == "" {
			return nil, fmt.Errorf("sqlschema: no table name for sample %T", b.sample)
		}
	}
	t, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("sqlschema: table %q not found in the inspected schema", name)
	}
	return &binding{table: t, class: class, skip: b.skip, ordered: b.ordered}, nil
}

// link derives the relationship fields of a single-column foreign key
// whose both ends are bound.
func (s *Source) link(child *binding, fk *schema.ForeignKey) {
	if len(fk.Columns) != 1 || fk.RefTable == nil {
		return
	}
	parent, ok := s.bound[fk.RefTable.Name]
	if !ok {
		return
	}
	col := fk.Columns[0]
	if child.skipped(col.Name) {
		return
	}
	fields := s.classes[child.class]
	mappedBy := ""
	if ref, ok := strings.CutSuffix(col.Name, "_id"); ok && ref != "" {
		if _, taken := fields[ref]; !taken {
			fields[ref] = facet.EntityField{Type: parent.class}
			mappedBy = ref
		}
	}
	if uniqueColumn(child.table, col) {
		// One-to-one, no collection on the referenced side.
		return
	}
	name := child.table.Name
	owner := s.classes[parent.class]
	if _, taken := owner[name]; taken {
		// A column of the same name, or an earlier key from the same
		// table, keeps the spot.
		return
	}
	owner[name] = facet.EntityField{
		Type: child.class,
		Collection: &facet.CollectionMetadata{
			Kind:     view.KindList,
			Type:     view.Persistent,
			MappedBy: mappedBy,
			OrderBy:  parent.orderOf(name),
		},
	}
}

func uniqueColumn(t *schema.Table, col *schema.Column) bool {
	if covers(t.PrimaryKey, col) {
		return true
	}
	for _, idx := range t.Indexes {
		if idx.Unique && covers(idx, col) {
			return true
		}
	}
	return false
}

// covers reports whether the index is exactly a single-column index
// over col.
func covers(idx *schema.Index, col *schema.Column) bool {
	return idx != nil && len(idx.Parts) == 1 && idx.Parts[0].C != nil && idx.Parts[0].C.Name == col.Name
}

// IsEntity reports whether class is bound to an inspected table.
func (s *Source) IsEntity(class reflect.Type) bool {
	_, ok := s.classes[indirect(class)]
	return ok
}

// Fields returns the fields derived for a bound class, keyed by column
// or relationship name. The returned map is a copy.
func (s *Source) Fields(class reflect.Type) (map[string]facet.EntityField, error) {
	fields, ok := s.classes[indirect(class)]
	if !ok {
		return nil, fmt.Errorf("sqlschema: %s is not a bound entity", typeName(class))
	}
	out := make(map[string]facet.EntityField, len(fields))
	for name, f := range fields {
		out[name] = f
	}
	return out, nil
}

// Classes returns the bound classes sorted by type name.
func (s *Source) Classes() []reflect.Type {
	classes := make([]reflect.Type, 0, len(s.classes))
	for t := range s.classes {
		classes = append(classes, t)
	}
	slices.SortFunc(classes, func(a, b reflect.Type) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return classes
}

// Table returns the inspected table a class is bound to.
func (s *Source) Table(class reflect.Type) (*schema.Table, bool) {
	t, ok := s.tables[indirect(class)]
	return t, ok
}

var (
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
	boolType    = reflect.TypeOf(false)
	bytesType   = reflect.TypeOf([]byte(nil))
	float64Type = reflect.TypeOf(float64(0))
	int64Type   = reflect.TypeOf(int64(0))
	rawJSONType = reflect.TypeOf(json.RawMessage(nil))
	stringType  = reflect.TypeOf("")
	timeType    = reflect.TypeOf(time.Time{})
	uint64Type  = reflect.TypeOf(uint64(0))
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

// columnType maps a column type to the Go type reported for the field.
// Nullable columns map to pointer types, mirroring how optional fields
// are declared on the reflection path. Types with no portable Go
// counterpart are reported as any so the column still resolves as a
// terminal path segment.
func columnType(col *schema.Column) reflect.Type {
	if col.Type == nil || col.Type.Type == nil {
		return anyType
	}
	var t reflect.Type
	switch ct := col.Type.Type.(type) {
	case *schema.BinaryType:
		t = bytesType
	case *schema.BoolType:
		t = boolType
	case *schema.DecimalType:
		t = float64Type
	case *schema.EnumType:
		t = stringType
	case *schema.FloatType:
		t = float64Type
	case *schema.IntegerType:
		t = int64Type
		if ct.Unsigned {
			t = uint64Type
		}
	case *schema.JSONType:
		t = rawJSONType
	case *schema.StringType:
		t = stringType
	case *schema.TimeType:
		t = timeType
	case *schema.UUIDType:
		t = uuidType
	default:
		return anyType
	}
	if col.Type.Null && t.Kind() != reflect.Slice {
		t = reflect.PointerTo(t)
	}
	return t
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
