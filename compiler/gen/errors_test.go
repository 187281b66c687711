package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewViewError("UserView", "email", "invalid mapping", cause)

		assert.Contains(t, err.Error(), "facet: view error")
		assert.Contains(t, err.Error(), "view UserView")
		assert.Contains(t, err.Error(), "field email")
		assert.Contains(t, err.Error(), "invalid mapping")
		assert.Contains(t, err.Error(), "underlying error")
	})

	t.Run("Error message with view only", func(t *testing.T) {
		err := &ViewError{View: "UserView"}
		assert.Contains(t, err.Error(), "view UserView")
		assert.NotContains(t, err.Error(), "field")
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewViewError("UserView", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidView", func(t *testing.T) {
		err := NewViewError("UserView", "", "", nil)
		assert.True(t, err.Is(ErrInvalidView))
	})

	t.Run("IsViewError helper", func(t *testing.T) {
		err := NewViewError("UserView", "email", "test", nil)
		assert.True(t, IsViewError(err))
		assert.False(t, IsViewError(errors.New("other")))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("Features", "bogus", "unknown feature flag")

		assert.Contains(t, err.Error(), "facet: config error")
		assert.Contains(t, err.Error(), "Features")
		assert.Contains(t, err.Error(), "bogus")
		assert.Contains(t, err.Error(), "unknown feature flag")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Package", nil, "cannot be empty")

		assert.Contains(t, err.Error(), "Package")
		assert.Contains(t, err.Error(), "cannot be empty")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Target", nil, "missing")
		assert.True(t, err.Is(ErrMissingConfig))
	})

	t.Run("IsConfigError helper", func(t *testing.T) {
		err := NewConfigError("Target", nil, "missing")
		assert.True(t, IsConfigError(err))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("write failed")
		err := NewGenerationError("provider", "provider.go", "cannot write file", cause)

		assert.Contains(t, err.Error(), "facet: generation error")
		assert.Contains(t, err.Error(), "phase provider")
		assert.Contains(t, err.Error(), "file: provider.go")
		assert.Contains(t, err.Error(), "cannot write file")
		assert.Contains(t, err.Error(), "write failed")
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewGenerationError("view", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrGenerationFailed", func(t *testing.T) {
		err := NewGenerationError("view", "", "", nil)
		assert.True(t, err.Is(ErrGenerationFailed))
	})

	t.Run("IsGenerationError helper", func(t *testing.T) {
		err := NewGenerationError("view", "", "", nil)
		assert.True(t, IsGenerationError(err))
		assert.False(t, IsGenerationError(errors.New("other")))
	})
}
