package facet_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

func TestNewMetadata(t *testing.T) {
	t.Parallel()

	type Account struct{}
	type AccountView struct{}

	meta, err := facet.NewMetadata(Account{}, facet.MetadataConfig{
		Mappings: []facet.DirectMapping{
			{DTOField: "name", EntityField: "username", DTOType: reflect.TypeOf("")},
			{DTOField: "city", EntityField: "address.cityName"},
		},
		Computed: []facet.ComputedField{
			{DTOField: "zone", Dependencies: []string{"address.cityName", "address.streetName"}},
		},
		Providers: []any{"zoneProvider"},
	})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(Account{}), meta.Entity())
	assert.Len(t, meta.Mappings(), 2)
	assert.Len(t, meta.Computed(), 1)
	assert.Equal(t, []any{"zoneProvider"}, meta.Providers())

	// Pointer samples and reflect.Type values are both accepted.
	meta, err = facet.NewMetadata(&Account{}, facet.MetadataConfig{})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(Account{}), meta.Entity())

	meta, err = facet.NewMetadata(reflect.TypeOf(AccountView{}), facet.MetadataConfig{})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(AccountView{}), meta.Entity())

	_, err = facet.NewMetadata(nil, facet.MetadataConfig{})
	assert.EqualError(t, err, "facet: invalid configuration: metadata requires an entity type")
	assert.True(t, facet.IsConfigurationError(err))
}

func TestNewMetadataValidation(t *testing.T) {
	t.Parallel()

	type Account struct{}

	tests := []struct {
		name    string
		cfg     facet.MetadataConfig
		wantErr string
	}{
		{
			name: "empty dto field",
			cfg: facet.MetadataConfig{
				Mappings: []facet.DirectMapping{{EntityField: "username"}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: direct mapping to "username" has an empty dto field`,
		},
		{
			name: "empty entity path",
			cfg: facet.MetadataConfig{
				Mappings: []facet.DirectMapping{{DTOField: "name"}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: direct mapping "name": empty entity path`,
		},
		{
			name: "empty path segment",
			cfg: facet.MetadataConfig{
				Mappings: []facet.DirectMapping{{DTOField: "city", EntityField: "address..cityName"}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: direct mapping "city": entity path "address..cityName" has an empty segment`,
		},
		{
			name: "duplicate direct field",
			cfg: facet.MetadataConfig{
				Mappings: []facet.DirectMapping{
					{DTOField: "name", EntityField: "username"},
					{DTOField: "name", EntityField: "displayName"},
				},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account declares field "name" twice`,
		},
		{
			name: "computed without dependencies",
			cfg: facet.MetadataConfig{
				Computed: []facet.ComputedField{{DTOField: "zone"}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: computed field "zone" requires at least one dependency`,
		},
		{
			name: "computed dependency with empty segment",
			cfg: facet.MetadataConfig{
				Computed: []facet.ComputedField{{DTOField: "zone", Dependencies: []string{"address."}}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: computed field "zone": entity path "address." has an empty segment`,
		},
		{
			name: "more reducers than dependencies",
			cfg: facet.MetadataConfig{
				Computed: []facet.ComputedField{{
					DTOField:     "total",
					Dependencies: []string{"orderItems.price"},
					Reducers:     []view.Reducer{view.Sum, view.Count},
				}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: computed field "total" has 2 reducers for 1 dependencies`,
		},
		{
			name: "invalid method reference",
			cfg: facet.MetadataConfig{
				Computed: []facet.ComputedField{{
					DTOField:     "zone",
					Dependencies: []string{"cityName"},
					Ref:          &view.MethodRef{},
				}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account: computed field "zone": method reference requires a target type or a method name`,
		},
		{
			name: "field declared as both direct and computed",
			cfg: facet.MetadataConfig{
				Mappings: []facet.DirectMapping{{DTOField: "name", EntityField: "username"}},
				Computed: []facet.ComputedField{{DTOField: "name", Dependencies: []string{"username"}}},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account declares field "name" as both direct and computed`,
		},
		{
			name: "duplicate computed field",
			cfg: facet.MetadataConfig{
				Computed: []facet.ComputedField{
					{DTOField: "zone", Dependencies: []string{"cityName"}},
					{DTOField: "zone", Dependencies: []string{"streetName"}},
				},
			},
			wantErr: `facet: invalid configuration: metadata for facet_test.Account declares field "zone" twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := facet.NewMetadata(Account{}, tt.cfg)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, facet.IsConfigurationError(err))
		})
	}
}

func TestDirectMappingPaths(t *testing.T) {
	t.Parallel()

	dm := facet.DirectMapping{DTOField: "name", EntityField: "username"}
	assert.Equal(t, 0, dm.NestingDepth())
	assert.Equal(t, "username", dm.RootField())

	dm = facet.DirectMapping{DTOField: "city", EntityField: "address.cityName"}
	assert.Equal(t, 1, dm.NestingDepth())
	assert.Equal(t, "address", dm.RootField())

	dm = facet.DirectMapping{DTOField: "zip", EntityField: "user.address.zipCode"}
	assert.Equal(t, 2, dm.NestingDepth())
	assert.Equal(t, "user", dm.RootField())
}

func TestMetadataLookup(t *testing.T) {
	t.Parallel()

	type Account struct{}
	meta, err := facet.NewMetadata(Account{}, facet.MetadataConfig{
		Mappings: []facet.DirectMapping{
			{DTOField: "Status", EntityField: "state"},
			{DTOField: "status", EntityField: "rawStatus"},
		},
		Computed: []facet.ComputedField{
			{DTOField: "zone", Dependencies: []string{"cityName", "streetName"}},
		},
	})
	require.NoError(t, err)

	t.Run("Exact", func(t *testing.T) {
		dm, ok := meta.DirectMapping("status", false)
		require.True(t, ok)
		assert.Equal(t, "rawStatus", dm.EntityField)

		cf, ok := meta.ComputedField("zone", false)
		require.True(t, ok)
		assert.Equal(t, []string{"cityName", "streetName"}, cf.Dependencies)

		_, ok = meta.DirectMapping("STATUS", false)
		assert.False(t, ok)
		_, ok = meta.ComputedField("ZONE", false)
		assert.False(t, ok)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		// The first declared match wins under folding.
		dm, ok := meta.DirectMapping("STATUS", true)
		require.True(t, ok)
		assert.Equal(t, "state", dm.EntityField)

		cf, ok := meta.ComputedField("ZONE", true)
		require.True(t, ok)
		assert.Equal(t, "zone", cf.DTOField)
	})

	t.Run("Missing", func(t *testing.T) {
		_, ok := meta.DirectMapping("doesNotExist", false)
		assert.False(t, ok)
		_, ok = meta.DirectMapping("doesNotExist", true)
		assert.False(t, ok)
		_, ok = meta.ComputedField("doesNotExist", true)
		assert.False(t, ok)
	})
}

func TestMetadataImmutability(t *testing.T) {
	t.Parallel()

	type Account struct{}
	meta, err := facet.NewMetadata(Account{}, facet.MetadataConfig{
		Mappings: []facet.DirectMapping{{
			DTOField:    "items",
			EntityField: "orderItems",
			Collection:  &view.CollectionInfo{Kind: view.KindList},
		}},
		Computed: []facet.ComputedField{{
			DTOField:     "zone",
			Dependencies: []string{"cityName", "streetName"},
		}},
	})
	require.NoError(t, err)

	mm := meta.Mappings()
	mm[0].EntityField = "mutated"
	mm[0].Collection.Kind = view.KindMap
	dm, ok := meta.DirectMapping("items", false)
	require.True(t, ok)
	assert.Equal(t, "orderItems", dm.EntityField)
	assert.Equal(t, view.KindList, dm.Collection.Kind)

	cf, ok := meta.ComputedField("zone", false)
	require.True(t, ok)
	cf.Dependencies[0] = "mutated"
	again, ok := meta.ComputedField("zone", false)
	require.True(t, ok)
	assert.Equal(t, "cityName", again.Dependencies[0])
}

func TestRequiredEntityFields(t *testing.T) {
	t.Parallel()

	type Account struct{}
	meta, err := facet.NewMetadata(Account{}, facet.MetadataConfig{
		Mappings: []facet.DirectMapping{
			{DTOField: "name", EntityField: "username"},
			{DTOField: "city", EntityField: "address.cityName"},
			{DTOField: "zip", EntityField: "address.zipCode"},
		},
		Computed: []facet.ComputedField{
			{DTOField: "zone", Dependencies: []string{"address.cityName", "address.streetName"}},
			{DTOField: "total", Dependencies: []string{"orderItems.price"}},
		},
	})
	require.NoError(t, err)

	// Direct mappings contribute their root fields, computed fields
	// their full dependency paths, deduplicated in declaration order.
	want := []string{"username", "address", "address.cityName", "address.streetName", "orderItems.price"}
	assert.Equal(t, want, meta.RequiredEntityFields())

	// Each call returns a fresh slice.
	fields := meta.RequiredEntityFields()
	fields[0] = "mutated"
	assert.Equal(t, want, meta.RequiredEntityFields())
}
