package load_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/facet"
	"github.com/syssam/facet/compiler/load"
	"github.com/syssam/facet/schema/view"
)

type Account struct {
	ID       int
	Username string
	Address  Location
}

type Location struct {
	CityName   string
	StreetName string
}

type AccountView struct {
	facet.Projection
}

func (AccountView) Entity() any { return Account{} }

func (AccountView) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.String("name").To("username"),
		view.Object("address", LocationView{}).To("address"),
		view.Computed("displayName").Requires("username", "title").Via(view.ByName("computeDisplayName")),
	}
}

func (AccountView) Mixin() []facet.Mixin {
	return []facet.Mixin{AuditMixin{}}
}

func (AccountView) Providers() []any {
	return []any{&NameProvider{}}
}

type LocationView struct {
	facet.Projection
}

func (LocationView) Entity() any { return Location{} }

func (LocationView) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.String("city").To("cityName"),
		view.String("street").To("streetName"),
	}
}

type AuditMixin struct{}

func (AuditMixin) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.Time("createdAt").To("createdAt"),
	}
}

type NameProvider struct{}

type InvalidView struct {
	facet.Projection
}

func (InvalidView) Entity() any { return Account{} }

func (InvalidView) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.String(""),
	}
}

type EntitylessView struct {
	facet.Projection
}

func (EntitylessView) Entity() any { return nil }

func (EntitylessView) Fields() []facet.ViewField { return nil }

type PanickingView struct {
	facet.Projection
}

func (PanickingView) Entity() any { return Account{} }

func (PanickingView) Fields() []facet.ViewField {
	panic("boom")
}

func TestNewProjection(t *testing.T) {
	t.Parallel()
	p, err := load.NewProjection(AccountView{})
	require.NoError(t, err)
	assert.Equal(t, "AccountView", p.Name)
	assert.Equal(t, "github.com/syssam/facet/compiler/load_test", p.Pkg)
	assert.Equal(t, "Account", p.Entity)
	assert.Equal(t, "github.com/syssam/facet/compiler/load_test", p.EntityPkg)
	require.NotNil(t, p.EntityType)
	assert.Equal(t, "Account", p.EntityType.Name())

	// Mixin fields come first, then the view's own fields.
	require.Len(t, p.Fields, 3)
	assert.Equal(t, "createdAt", p.Fields[0].Name)
	require.NotNil(t, p.Fields[0].Position)
	assert.True(t, p.Fields[0].Position.MixedIn)
	assert.Equal(t, 0, p.Fields[0].Position.MixinIndex)

	assert.Equal(t, "name", p.Fields[1].Name)
	assert.Equal(t, "username", p.Fields[1].Entity)
	require.NotNil(t, p.Fields[1].Position)
	assert.False(t, p.Fields[1].Position.MixedIn)
	assert.Equal(t, 0, p.Fields[1].Position.Index)

	assert.Equal(t, "address", p.Fields[2].Name)
	require.NotNil(t, p.Fields[2].Info)
	assert.Equal(t, "load_test.LocationView", p.Fields[2].Info.Ident)

	require.Len(t, p.Computed, 1)
	assert.Equal(t, "displayName", p.Computed[0].Name)
	assert.Equal(t, []string{"username", "title"}, p.Computed[0].Deps)
	require.NotNil(t, p.Computed[0].Method)
	assert.Equal(t, "computeDisplayName", p.Computed[0].Method.Method)

	require.Len(t, p.Providers, 1)
	assert.Equal(t, "NameProvider", p.Providers[0].Ident)
	assert.True(t, p.Providers[0].Pointer)
}

func TestNewProjectionErrors(t *testing.T) {
	t.Parallel()
	t.Run("InvalidField", func(t *testing.T) {
		t.Parallel()
		_, err := load.NewProjection(InvalidView{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `view "InvalidView"`)
		assert.Contains(t, err.Error(), "field name cannot be empty")
	})
	t.Run("MissingEntity", func(t *testing.T) {
		t.Parallel()
		_, err := load.NewProjection(EntitylessView{})
		require.EqualError(t, err, `view "EntitylessView": entity is not declared`)
	})
	t.Run("PanicInFields", func(t *testing.T) {
		t.Parallel()
		_, err := load.NewProjection(PanickingView{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Fields panics: boom")
	})
}

func TestNewField(t *testing.T) {
	t.Parallel()
	t.Run("DefaultEntity", func(t *testing.T) {
		t.Parallel()
		f, err := load.NewField(view.String("title").Descriptor())
		require.NoError(t, err)
		assert.Equal(t, "title", f.Name)
		assert.Equal(t, "title", f.Entity)
	})
	t.Run("DescriptorError", func(t *testing.T) {
		t.Parallel()
		_, err := load.NewField(view.String("name").To("").Descriptor())
		require.EqualError(t, err, `field "name": empty entity field for "name"`)
	})
	t.Run("ComputedRejected", func(t *testing.T) {
		t.Parallel()
		vd := view.Computed("total").Requires("price").Descriptor()
		_, err := load.NewField(vd)
		require.EqualError(t, err, `field "total": computed descriptor in direct position`)
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	buf, err := load.MarshalView(AccountView{})
	require.NoError(t, err)
	p, err := load.UnmarshalProjection(buf)
	require.NoError(t, err)
	assert.Equal(t, "AccountView", p.Name)
	assert.Equal(t, "Account", p.Entity)
	assert.Nil(t, p.EntityType, "type handles do not survive serialization")
	require.Len(t, p.Fields, 3)
	assert.Equal(t, "username", p.Fields[1].Entity)
	require.Len(t, p.Computed, 1)
	require.NotNil(t, p.Computed[0].Method)
	assert.Equal(t, "computeDisplayName", p.Computed[0].Method.Method)
	require.Len(t, p.Providers, 1)
	assert.Equal(t, "NameProvider", p.Providers[0].Ident)

	_, err = load.UnmarshalProjection([]byte(`{}`))
	require.EqualError(t, err, "projection without a name")
}

func TestProjectionMetadata(t *testing.T) {
	t.Parallel()
	p, err := load.NewProjection(AccountView{})
	require.NoError(t, err)
	md, err := p.Metadata()
	require.NoError(t, err)

	dm, ok := md.DirectMapping("name", false)
	require.True(t, ok)
	assert.Equal(t, "username", dm.EntityField)

	dm, ok = md.DirectMapping("address", false)
	require.True(t, ok)
	require.NotNil(t, dm.DTOType)
	assert.Equal(t, "LocationView", dm.DTOType.Name())

	cf, ok := md.ComputedField("displayName", false)
	require.True(t, ok)
	assert.Equal(t, []string{"username", "title"}, cf.Dependencies)
	require.NotNil(t, cf.Ref)
	assert.Equal(t, "computeDisplayName", cf.Ref.Method())

	require.Len(t, md.Providers(), 1)

	fields := md.RequiredEntityFields()
	assert.Equal(t, []string{"createdAt", "username", "address", "title"}, fields)
}

func TestProjectionMetadataAfterRoundTrip(t *testing.T) {
	t.Parallel()
	buf, err := load.MarshalView(AccountView{})
	require.NoError(t, err)
	p, err := load.UnmarshalProjection(buf)
	require.NoError(t, err)
	_, err = p.Metadata()
	require.EqualError(t, err, `projection "AccountView" has no entity type handle`)
}
