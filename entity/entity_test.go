package entity_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/facet"
	"github.com/syssam/facet/entity"
	"github.com/syssam/facet/schema/view"
)

type Audit struct {
	CreatedAt time.Time
}

type Address struct {
	ID       uuid.UUID
	CityName string
	Zip      *string
}

type Account struct {
	Audit
	ID       int
	Username string
	FullName string `facet:"display_name"`
	Password string `facet:"-"`
	Draft    bool   `facet:",transient"`
	Address  Address
	Friends  []Account `facet:",mappedBy=account,orderBy=created_at"`
	Tags     []string  `facet:",kind=set"`
	Meta     map[string]string
	Raw      []byte
	OnChange func()
	secret   string
}

func newSet(t *testing.T) *entity.Set {
	t.Helper()
	set, err := entity.NewSet(Account{}, &Address{})
	require.NoError(t, err)
	return set
}

func TestIsEntity(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	assert.True(t, set.IsEntity(reflect.TypeOf(Account{})))
	assert.True(t, set.IsEntity(reflect.TypeOf(&Address{})))
	assert.False(t, set.IsEntity(reflect.TypeOf("")))
	assert.False(t, set.IsEntity(reflect.TypeOf(Audit{})))
}

func TestFields(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	fields, err := set.Fields(reflect.TypeOf(Account{}))
	require.NoError(t, err)

	t.Run("Scan", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, fields, 9)
		for _, name := range []string{"password", "draft", "on_change", "secret"} {
			assert.NotContains(t, fields, name)
		}
	})
	t.Run("Scalars", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, reflect.TypeOf(0), fields["id"].Type)
		assert.Equal(t, reflect.TypeOf(""), fields["username"].Type)
		assert.Equal(t, reflect.TypeOf(""), fields["display_name"].Type)
		assert.Equal(t, reflect.TypeOf([]byte(nil)), fields["raw"].Type)
		assert.Nil(t, fields["raw"].Collection)
	})
	t.Run("PromotedFields", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, reflect.TypeOf(time.Time{}), fields["created_at"].Type)
	})
	t.Run("Reference", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, reflect.TypeOf(Address{}), fields["address"].Type)
		assert.Nil(t, fields["address"].Collection)
	})
	t.Run("Collections", func(t *testing.T) {
		t.Parallel()
		friends := fields["friends"]
		require.NotNil(t, friends.Collection)
		assert.Equal(t, reflect.TypeOf(Account{}), friends.Type)
		assert.Equal(t, view.KindList, friends.Collection.Kind)
		assert.Equal(t, view.Persistent, friends.Collection.Type)
		assert.Equal(t, "account", friends.Collection.MappedBy)
		assert.Equal(t, "created_at", friends.Collection.OrderBy)

		tags := fields["tags"]
		require.NotNil(t, tags.Collection)
		assert.Equal(t, view.KindSet, tags.Collection.Kind)
		assert.Equal(t, reflect.TypeOf(""), tags.Type)

		meta := fields["meta"]
		require.NotNil(t, meta.Collection)
		assert.Equal(t, view.KindMap, meta.Collection.Kind)
		assert.Equal(t, reflect.TypeOf(""), meta.Type)
	})
	t.Run("NillableScalar", func(t *testing.T) {
		t.Parallel()
		addr, err := set.Fields(reflect.TypeOf(Address{}))
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf((*string)(nil)), addr["zip"].Type)
		assert.Equal(t, reflect.TypeOf(uuid.Nil), addr["id"].Type)
	})
}

func TestFieldsCopy(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	class := reflect.TypeOf(Address{})
	fields, err := set.Fields(class)
	require.NoError(t, err)
	delete(fields, "city_name")
	fields["rogue"] = facet.EntityField{}

	again, err := set.Fields(class)
	require.NoError(t, err)
	assert.Contains(t, again, "city_name")
	assert.NotContains(t, again, "rogue")
}

func TestFieldsUnknownClass(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	_, err := set.Fields(reflect.TypeOf(Audit{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a registered entity")
}

func TestNewSetErrors(t *testing.T) {
	t.Parallel()

	t.Run("NonStructSample", func(t *testing.T) {
		t.Parallel()
		_, err := entity.NewSet(42)
		require.EqualError(t, err, "entity: sample int is not a struct")
	})
	t.Run("DuplicateSample", func(t *testing.T) {
		t.Parallel()
		_, err := entity.NewSet(Account{}, &Account{})
		require.EqualError(t, err, "entity: Account registered twice")
	})
	t.Run("UnknownTagOption", func(t *testing.T) {
		t.Parallel()
		type Bad struct {
			Name string `facet:",indexed"`
		}
		_, err := entity.NewSet(Bad{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown tag option "indexed"`)
	})
	t.Run("CollectionOptionOnScalar", func(t *testing.T) {
		t.Parallel()
		type Bad struct {
			Name string `facet:",mappedBy=owner"`
		}
		_, err := entity.NewSet(Bad{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"mappedBy" is only valid on collection fields`)
	})
	t.Run("UnknownCollectionKind", func(t *testing.T) {
		t.Parallel()
		type Bad struct {
			Tags []string `facet:",kind=bag"`
		}
		_, err := entity.NewSet(Bad{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown collection kind "bag"`)
	})
	t.Run("DuplicateFieldName", func(t *testing.T) {
		t.Parallel()
		type Bad struct {
			Name  string
			Title string `facet:"name"`
		}
		_, err := entity.NewSet(Bad{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `declares field "name" twice`)
	})
}

func TestTransientCollection(t *testing.T) {
	t.Parallel()
	type Cart struct {
		ID    int
		Items []string `facet:",transient"`
	}
	set, err := entity.NewSet(Cart{})
	require.NoError(t, err)
	fields, err := set.Fields(reflect.TypeOf(Cart{}))
	require.NoError(t, err)
	items := fields["items"]
	require.NotNil(t, items.Collection)
	assert.Equal(t, view.Transient, items.Collection.Type)
}

func TestMustSet(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { entity.MustSet(42) })
	assert.NotNil(t, entity.MustSet(Address{}))
}

func TestClasses(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	classes := set.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "Account", classes[0].Name())
	assert.Equal(t, "Address", classes[1].Name())
}

// The scanner is what the registry falls back to for classes without an
// explicit projection, so implicit identity resolution must work end to
// end through it.
func TestImplicitResolution(t *testing.T) {
	t.Parallel()
	set := newSet(t)
	reg, err := facet.NewRegistry(
		facet.ProviderFunc(func(reflect.Type) (*facet.Metadata, bool) { return nil, false }),
		facet.WithEntitySource(set),
	)
	require.NoError(t, err)

	path, err := reg.ToEntityPath("address.city_name", reflect.TypeOf(Account{}), false)
	require.NoError(t, err)
	assert.Equal(t, "address.city_name", path)

	// Collection segments descend into the element entity.
	path, err = reg.ToEntityPath("friends.username", reflect.TypeOf(Account{}), false)
	require.NoError(t, err)
	assert.Equal(t, "friends.username", path)

	fields, err := reg.RequiredEntityFields(reflect.TypeOf(Address{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"city_name", "id", "zip"}, fields)
}
