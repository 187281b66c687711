package facet_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/facet"
)

func TestConfigurationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := facet.NewConfigurationError("nil provider", nil)
		assert.Equal(t, "facet: invalid configuration: nil provider", err.Error())

		err = facet.NewConfigurationError("building metadata provider", errors.New("boom"))
		assert.Equal(t, "facet: invalid configuration: building metadata provider: boom", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("bad mapping")
		err := facet.NewConfigurationError("metadata for User", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConfigurationError", func(t *testing.T) {
		err := facet.NewConfigurationError("nil provider", nil)
		assert.True(t, facet.IsConfigurationError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, facet.IsConfigurationError(wrapped))

		// Non-matching error
		assert.False(t, facet.IsConfigurationError(errors.New("other error")))
		assert.False(t, facet.IsConfigurationError(nil))
	})
}

func TestResolutionError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := facet.NewResolutionError("user.doesNotExist", facet.ErrUnresolvable)
		assert.Equal(t, `facet: resolving "user.doesNotExist": facet: unresolvable path`, err.Error())
	})

	t.Run("Path", func(t *testing.T) {
		err := facet.NewResolutionError("address.city", errors.New("cause"))
		assert.Equal(t, "address.city", err.Path)
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("no metadata")
		err := facet.NewResolutionError("name", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsResolutionError", func(t *testing.T) {
		err := facet.NewResolutionError("name", facet.ErrUnresolvable)
		assert.True(t, facet.IsResolutionError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, facet.IsResolutionError(wrapped))

		// Non-matching error
		assert.False(t, facet.IsResolutionError(errors.New("other error")))
		assert.False(t, facet.IsResolutionError(nil))
	})
}

func TestIsUnresolvable(t *testing.T) {
	err := facet.NewResolutionError("doesNotExist", fmt.Errorf("no mapping: %w", facet.ErrUnresolvable))
	assert.True(t, facet.IsUnresolvable(err))

	// Sentinel error
	assert.True(t, facet.IsUnresolvable(facet.ErrUnresolvable))

	// Resolution failures with other causes do not match
	assert.False(t, facet.IsUnresolvable(facet.NewResolutionError("name", errors.New("provider down"))))
	assert.False(t, facet.IsUnresolvable(nil))
}
