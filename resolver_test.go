package facet_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/facet"
)

func TestToEntityPath(t *testing.T) {
	t.Parallel()
	r, _, _ := newFixtureRegistry(t)

	t.Run("Simple", func(t *testing.T) {
		got, err := r.ToEntityPath("name", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "username", got)
	})

	t.Run("Nested", func(t *testing.T) {
		got, err := r.ToEntityPath("address.city", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "address.cityName", got)
	})

	t.Run("Computed", func(t *testing.T) {
		got, err := r.ToEntityPath("displayName", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "username,title", got)
	})

	t.Run("ComputedBehindDirect", func(t *testing.T) {
		// Each dependency of the computed field picks up the entity
		// path accumulated on the way in.
		got, err := r.ToEntityPath("address.geographicZone", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "address.cityName,address.streetName", got)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		got, err := r.ToEntityPath("NAME", reflect.TypeOf(UserView{}), true)
		require.NoError(t, err)
		assert.Equal(t, "username", got)

		got, err = r.ToEntityPath("ADDRESS.City", reflect.TypeOf(UserView{}), true)
		require.NoError(t, err)
		assert.Equal(t, "address.cityName", got)

		// Exact mode stays case-sensitive.
		_, err = r.ToEntityPath("NAME", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.True(t, facet.IsUnresolvable(err))
	})

	t.Run("Unresolvable", func(t *testing.T) {
		_, err := r.ToEntityPath("doesNotExist", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.True(t, facet.IsResolutionError(err))
		assert.True(t, facet.IsUnresolvable(err))
		assert.ErrorContains(t, err, `no mapping for segment "doesNotExist"`)

		var rerr *facet.ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "doesNotExist", rerr.Path)
	})

	t.Run("UnresolvableNested", func(t *testing.T) {
		_, err := r.ToEntityPath("address.zipCode", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.ErrorContains(t, err, `no mapping for segment "zipCode"`)

		// The full original path is preserved even when an inner
		// segment is the one that failed.
		var rerr *facet.ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "address.zipCode", rerr.Path)
	})

	t.Run("RestAfterComputed", func(t *testing.T) {
		_, err := r.ToEntityPath("displayName.length", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.True(t, facet.IsUnresolvable(err))
		assert.ErrorContains(t, err, `computed field "displayName" is terminal`)
	})

	t.Run("ScalarDescent", func(t *testing.T) {
		// name maps to a string; there is nothing to descend into.
		_, err := r.ToEntityPath("name.length", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.True(t, facet.IsUnresolvable(err))
		assert.ErrorContains(t, err, "no projection metadata for string")
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := r.ToEntityPath("", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.ErrorContains(t, err, "empty segment")

		_, err = r.ToEntityPath("address.", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.ErrorContains(t, err, "empty segment")
	})

	t.Run("NilClass", func(t *testing.T) {
		_, err := r.ToEntityPath("name", nil, false)
		require.Error(t, err)
		assert.True(t, facet.IsUnresolvable(err))
		assert.ErrorContains(t, err, "no projection metadata for <nil>")
	})
}

func TestToEntityPathCache(t *testing.T) {
	t.Parallel()

	t.Run("Idempotent", func(t *testing.T) {
		t.Parallel()
		r, p, _ := newFixtureRegistry(t)
		first, err := r.ToEntityPath("address.geographicZone", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		lookups := p.count()
		assert.Equal(t, 2, lookups, "one lookup per traversed projection")

		second, err := r.ToEntityPath("address.geographicZone", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, lookups, p.count(), "repeated resolution must hit the cache")
	})

	t.Run("IsolatedPerClass", func(t *testing.T) {
		t.Parallel()
		r, p, _ := newFixtureRegistry(t)
		got, err := r.ToEntityPath("name", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "username", got)
		after := p.count()

		// The same path on a different projection resolves on its own.
		got, err = r.ToEntityPath("name", reflect.TypeOf(OrderView{}), false)
		require.NoError(t, err)
		assert.Equal(t, "customerName", got)
		assert.Greater(t, p.count(), after)
	})

	t.Run("FoldKeysSeparate", func(t *testing.T) {
		t.Parallel()
		r, p, _ := newFixtureRegistry(t)
		_, err := r.ToEntityPath("name", reflect.TypeOf(UserView{}), false)
		require.NoError(t, err)
		after := p.count()

		// The fold flag is part of the cache key.
		_, err = r.ToEntityPath("name", reflect.TypeOf(UserView{}), true)
		require.NoError(t, err)
		assert.Greater(t, p.count(), after)
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		t.Parallel()
		r, p, _ := newFixtureRegistry(t)
		_, err := r.ToEntityPath("doesNotExist", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		after := p.count()

		_, err = r.ToEntityPath("doesNotExist", reflect.TypeOf(UserView{}), false)
		require.Error(t, err)
		assert.Greater(t, p.count(), after)
	})

	t.Run("Concurrent", func(t *testing.T) {
		t.Parallel()
		r, _, _ := newFixtureRegistry(t)
		g := new(errgroup.Group)
		for i := 0; i < 16; i++ {
			g.Go(func() error {
				got, err := r.ToEntityPath("address.city", reflect.TypeOf(UserView{}), false)
				if err != nil {
					return err
				}
				if got != "address.cityName" {
					return fmt.Errorf("unexpected path %q", got)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	})
}

// TestIdentityResolution tests resolution against implicit metadata of
// a plain entity class.
func TestIdentityResolution(t *testing.T) {
	t.Parallel()
	r, _, _ := newFixtureRegistry(t)

	got, err := r.ToEntityPath("name", reflect.TypeOf(User{}), false)
	require.NoError(t, err)
	assert.Equal(t, "name", got)

	fields, err := r.RequiredEntityFields(reflect.TypeOf(User{}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "name"}, fields)
}

// TestLazyFailureDuringResolution tests that a provider that cannot be
// built surfaces as a configuration failure underneath the resolution
// error.
func TestLazyFailureDuringResolution(t *testing.T) {
	t.Parallel()

	r, err := facet.NewLazyRegistry(func() (facet.Provider, error) {
		return nil, errors.New("bad config file")
	})
	require.NoError(t, err)

	_, err = r.ToEntityPath("name", reflect.TypeOf(UserView{}), false)
	require.Error(t, err)
	assert.True(t, facet.IsResolutionError(err))
	assert.True(t, facet.IsConfigurationError(err))
	assert.False(t, facet.IsUnresolvable(err))
}
