// Package load turns facet.View declarations into their serializable
// loaded representation, the input of the code generator.
package load

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

// Projection represents a facet.View that was loaded from a user
// package.
type Projection struct {
	Name       string         `json:"name,omitempty"`
	Pkg        string         `json:"pkg,omitempty"`
	Entity     string         `json:"entity,omitempty"`
	EntityPkg  string         `json:"entity_pkg,omitempty"`
	EntityType reflect.Type   `json:"-"`
	Fields     []*Field       `json:"fields,omitempty"`
	Computed   []*Computed    `json:"computed,omitempty"`
	Providers  []*ProviderRef `json:"providers,omitempty"`

	// provider samples as declared, kept when loaded in-process
	samples []any
}

// Position describes the position of a field in the view definition.
type Position struct {
	Index      int  // Index in the field list.
	MixedIn    bool // Indicates if the field was mixed-in.
	MixinIndex int  // Mixin index in the mixin list.
}

// Field represents a direct view field that was loaded from a view
// definition.
type Field struct {
	Name       string               `json:"name,omitempty"`
	Entity     string               `json:"entity,omitempty"`
	Info       *view.TypeInfo       `json:"type,omitempty"`
	Collection *view.CollectionInfo `json:"collection,omitempty"`
	Position   *Position            `json:"position,omitempty"`
}

// Computed represents a computed view field that was loaded from a view
// definition.
type Computed struct {
	Name     string          `json:"name,omitempty"`
	Deps     []string        `json:"deps,omitempty"`
	Reducers []view.Reducer  `json:"reducers,omitempty"`
	Method   *MethodRef      `json:"method,omitempty"`
	Ref      *view.MethodRef `json:"-"`
	Position *Position       `json:"position,omitempty"`
}

// MethodRef is the serializable form of a view.MethodRef.
type MethodRef struct {
	Target  string `json:"target,omitempty"`
	PkgPath string `json:"pkg_path,omitempty"`
	Method  string `json:"method,omitempty"`
}

// ProviderRef names the type of one computation provider.
type ProviderRef struct {
	Ident   string `json:"ident,omitempty"`
	PkgPath string `json:"pkg_path,omitempty"`
	Pointer bool   `json:"pointer,omitempty"`
}

// NewField creates a loaded field from a view descriptor.
// It returns an error if the descriptor contains an error.
func NewField(vd *view.Descriptor) (*Field, error) {
	if vd.Err != nil {
		return nil, fmt.Errorf("field %q: %v", vd.Name, vd.Err)
	}
	if vd.Computed {
		return nil, fmt.Errorf("field %q: computed descriptor in direct position", vd.Name)
	}
	nf := &Field{
		Name:       vd.Name,
		Entity:     vd.Entity,
		Info:       vd.Info,
		Collection: vd.Collection,
	}
	if nf.Entity == "" {
		nf.Entity = nf.Name
	}
	if nf.Info == nil {
		return nil, fmt.Errorf("missing type info for field %q", nf.Name)
	}
	return nf, nil
}

// NewComputed creates a loaded computed field from a view descriptor.
// It returns an error if the descriptor contains an error.
func NewComputed(vd *view.Descriptor) (*Computed, error) {
	if vd.Err != nil {
		return nil, fmt.Errorf("computed field %q: %v", vd.Name, vd.Err)
	}
	nc := &Computed{
		Name:     vd.Name,
		Deps:     vd.Deps,
		Reducers: vd.Reducers,
		Ref:      vd.Ref,
	}
	if ref := vd.Ref; ref != nil {
		nc.Method = &MethodRef{Method: ref.Method()}
		if t := ref.Target(); t != nil {
			nc.Method.Target = t.Name()
			nc.Method.PkgPath = t.PkgPath()
		}
	}
	return nc, nil
}

// NewProjection converts a facet.View into its loaded form.
func NewProjection(v facet.View) (*Projection, error) {
	vt := indirect(reflect.TypeOf(v))
	p := &Projection{
		Name: vt.Name(),
		Pkg:  vt.PkgPath(),
	}
	entity, err := safeEntity(v)
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", p.Name, err)
	}
	et := entityType(entity)
	if et == nil {
		return nil, fmt.Errorf("view %q: entity is not declared", p.Name)
	}
	p.EntityType = et
	p.Entity = et.Name()
	p.EntityPkg = et.PkgPath()
	if err := p.loadMixin(v); err != nil {
		return nil, fmt.Errorf("view %q: %w", p.Name, err)
	}
	if err := p.loadFields(v); err != nil {
		return nil, fmt.Errorf("view %q: %w", p.Name, err)
	}
	if err := p.loadProviders(v); err != nil {
		return nil, fmt.Errorf("view %q: %w", p.Name, err)
	}
	return p, nil
}

// MarshalView encodes a facet.View into JSON that can be decoded into
// the Projection objects declared above.
func MarshalView(v facet.View) ([]byte, error) {
	p, err := NewProjection(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// UnmarshalProjection decodes the given buffer to a loaded projection.
// Type handles and provider samples do not survive the round trip;
// only their identifiers do.
func UnmarshalProjection(buf []byte) (*Projection, error) {
	p := &Projection{}
	if err := json.Unmarshal(buf, p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("projection without a name")
	}
	return p, nil
}

// Metadata converts the loaded projection into validated runtime
// metadata. Provider samples and method references are carried through
// when the projection was loaded in-process; after a JSON round trip
// only name-based method references survive.
func (p *Projection) Metadata() (*facet.Metadata, error) {
	if p.EntityType == nil {
		return nil, fmt.Errorf("projection %q has no entity type handle", p.Name)
	}
	cfg := facet.MetadataConfig{Providers: p.samples}
	for _, f := range p.Fields {
		dm := facet.DirectMapping{
			DTOField:    f.Name,
			EntityField: f.Entity,
			Collection:  f.Collection,
		}
		if f.Info != nil {
			dm.DTOType = f.Info.RType
		}
		cfg.Mappings = append(cfg.Mappings, dm)
	}
	for _, c := range p.Computed {
		cf := facet.ComputedField{
			DTOField:     c.Name,
			Dependencies: c.Deps,
			Reducers:     c.Reducers,
			Ref:          c.Ref,
		}
		if cf.Ref == nil && c.Method != nil && c.Method.Method != "" {
			ref := view.ByName(c.Method.Method)
			cf.Ref = &ref
		}
		cfg.Computed = append(cfg.Computed, cf)
	}
	return facet.NewMetadata(p.EntityType, cfg)
}

// loadMixin loads the mixed-in fields of the view, in mixin order,
// before the view's own fields.
func (p *Projection) loadMixin(v facet.View) error {
	mixin, err := safeMixin(v)
	if err != nil {
		return err
	}
	for i, mx := range mixin {
		name := indirect(reflect.TypeOf(mx)).Name()
		fields, ferr := safeFields(mx)
		if ferr != nil {
			return fmt.Errorf("mixin %q: %w", name, ferr)
		}
		for j, f := range fields {
			pos := &Position{Index: j, MixedIn: true, MixinIndex: i}
			if ferr := p.addField(f, pos); ferr != nil {
				return fmt.Errorf("mixin %q: %w", name, ferr)
			}
		}
	}
	return nil
}

// loadFields loads the view's own fields.
func (p *Projection) loadFields(v facet.View) error {
	fields, err := safeFields(v)
	if err != nil {
		return err
	}
	for i, f := range fields {
		if err := p.addField(f, &Position{Index: i}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projection) addField(f facet.ViewField, pos *Position) error {
	vd := f.Descriptor()
	if vd == nil {
		return fmt.Errorf("field builder %T returned a nil descriptor", f)
	}
	if vd.Computed {
		nc, err := NewComputed(vd)
		if err != nil {
			return err
		}
		nc.Position = pos
		p.Computed = append(p.Computed, nc)
		return nil
	}
	nf, err := NewField(vd)
	if err != nil {
		return err
	}
	nf.Position = pos
	p.Fields = append(p.Fields, nf)
	return nil
}

// loadProviders records the computation providers of the view, both as
// live samples and as serializable type references.
func (p *Projection) loadProviders(v facet.View) error {
	vp, ok := v.(facet.ViewProviders)
	if !ok {
		return nil
	}
	samples, err := safeProviders(vp)
	if err != nil {
		return err
	}
	for _, s := range samples {
		if s == nil {
			return fmt.Errorf("nil provider")
		}
		t := reflect.TypeOf(s)
		ref := &ProviderRef{Pointer: t.Kind() == reflect.Pointer}
		t = indirect(t)
		ref.Ident = t.Name()
		ref.PkgPath = t.PkgPath()
		p.Providers = append(p.Providers, ref)
		p.samples = append(p.samples, s)
	}
	return nil
}

// entityType normalizes the View.Entity result, which may be a sample
// value or a reflect.Type, to the underlying non-pointer type.
func entityType(v any) reflect.Type {
	if v == nil {
		return nil
	}
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	return indirect(t)
}

// safeEntity wraps the view.Entity method with recover to ensure no
// panics in loading.
func safeEntity(v facet.View) (entity any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%T.Entity panics: %v", v, r)
			entity = nil
		}
	}()
	return v.Entity(), nil
}

// safeFields wraps the view.Fields and mixin.Fields method with recover
// to ensure no panics in loading.
func safeFields(fd interface{ Fields() []facet.ViewField }) (fields []facet.ViewField, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%T.Fields panics: %v", fd, r)
			fields = nil
		}
	}()
	return fd.Fields(), nil
}

// safeMixin wraps the view.Mixin method with recover to ensure no
// panics in loading.
func safeMixin(v facet.View) (mixin []facet.Mixin, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%T.Mixin panics: %v", v, r)
			mixin = nil
		}
	}()
	vm, ok := v.(facet.ViewMixins)
	if !ok {
		return nil, nil
	}
	return vm.Mixin(), nil
}

// safeProviders wraps the view.Providers method with recover to ensure
// no panics in loading.
func safeProviders(vp facet.ViewProviders) (samples []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%T.Providers panics: %v", vp, r)
			samples = nil
		}
	}()
	return vp.Providers(), nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
