package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/facet/compiler/load"
	"github.com/syssam/facet/schema/view"
)

func accountProjection() *load.Projection {
	return &load.Projection{
		Name:      "AccountView",
		Pkg:       "example.com/app/views",
		Entity:    "Account",
		EntityPkg: "example.com/app/model",
		Fields: []*load.Field{
			{Name: "name", Entity: "username"},
			{Name: "city", Entity: "address.cityName"},
			{Name: "zip", Entity: "address.zipCode"},
		},
		Computed: []*load.Computed{
			{Name: "displayName", Deps: []string{"username", "title"}},
		},
	}
}

func TestNewGraph(t *testing.T) {
	t.Run("creates graph with views", func(t *testing.T) {
		g, err := NewGraph(DefaultConfig(), accountProjection())
		require.NoError(t, err)
		require.Len(t, g.Views, 1)
		assert.Equal(t, "AccountView", g.Views[0].Name)
	})

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewGraph(nil, accountProjection())
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("duplicate view returns error", func(t *testing.T) {
		_, err := NewGraph(DefaultConfig(), accountProjection(), accountProjection())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "view declared twice")
	})
}

func TestNewType(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*load.Projection)
		wantErr string
	}{
		{
			name:    "valid projection",
			mutate:  func(*load.Projection) {},
			wantErr: "",
		},
		{
			name:    "empty view name",
			mutate:  func(p *load.Projection) { p.Name = "" },
			wantErr: "view name cannot be empty",
		},
		{
			name:    "invalid view name",
			mutate:  func(p *load.Projection) { p.Name = "9View" },
			wantErr: "valid Go identifier",
		},
		{
			name:    "unknown view package",
			mutate:  func(p *load.Projection) { p.Pkg = "" },
			wantErr: "view package is unknown",
		},
		{
			name:    "missing entity",
			mutate:  func(p *load.Projection) { p.Entity = "" },
			wantErr: "entity is not declared",
		},
		{
			name:    "empty field name",
			mutate:  func(p *load.Projection) { p.Fields[0].Name = "" },
			wantErr: "field name cannot be empty",
		},
		{
			name: "field declared twice",
			mutate: func(p *load.Projection) {
				p.Computed[0].Name = p.Fields[0].Name
			},
			wantErr: "field declared twice",
		},
		{
			name:    "missing entity field",
			mutate:  func(p *load.Projection) { p.Fields[0].Entity = "" },
			wantErr: "missing entity field",
		},
		{
			name:    "computed without dependencies",
			mutate:  func(p *load.Projection) { p.Computed[0].Deps = nil },
			wantErr: "at least one dependency",
		},
		{
			name: "more reducers than dependencies",
			mutate: func(p *load.Projection) {
				p.Computed[0].Deps = []string{"username"}
				p.Computed[0].Reducers = []view.Reducer{view.Sum, view.Max}
			},
			wantErr: "2 reducers for 1 dependencies",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := accountProjection()
			tt.mutate(p)
			_, err := NewType(DefaultConfig(), p)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsViewError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTypeNames(t *testing.T) {
	typ, err := NewType(DefaultConfig(), accountProjection())
	require.NoError(t, err)
	assert.Equal(t, "accountview", typ.PackageDir())
	assert.Equal(t, "account_view.go", typ.FileName())
	assert.Equal(t, "accountViewMetadata", typ.MetadataFunc())
}

func TestEntityFields(t *testing.T) {
	t.Run("roots and dependencies deduplicated", func(t *testing.T) {
		typ, err := NewType(DefaultConfig(), accountProjection())
		require.NoError(t, err)
		// Both nested mappings collapse to the "address" root and the
		// computed dependency on "username" is already covered.
		assert.Equal(t, []string{"username", "address", "title"}, typ.EntityFields())
	})
}
