package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("Dialect", "oracle", "unsupported dialect")

		assert.Contains(t, err.Error(), "ekxgen: config error")
		assert.Contains(t, err.Error(), "Dialect")
		assert.Contains(t, err.Error(), "oracle")
		assert.Contains(t, err.Error(), "unsupported dialect")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Database", nil, "cannot be empty")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewConfigError("Database", nil, ""))
		assert.True(t, errors.Is(err, ErrMissingConfig))
		assert.False(t, errors.Is(err, ErrGenerationFailed))
	})

	t.Run("IsConfigError helper", func(t *testing.T) {
		assert.True(t, IsConfigError(NewConfigError("Namespace", nil, "x")))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewGenerationError(PhaseWrite, "EkxSqliteTypes.h", "cannot replace artifact", cause)

		assert.Equal(t, "ekxgen: generation error in phase write (file: EkxSqliteTypes.h): cannot replace artifact: disk full", err.Error())
	})

	t.Run("Error message with phase only", func(t *testing.T) {
		err := &GenerationError{Phase: PhaseEnum}
		assert.Equal(t, "ekxgen: generation error in phase enum", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewGenerationError(PhaseRender, "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrGenerationFailed))
	})

	t.Run("IsGenerationError helper", func(t *testing.T) {
		assert.True(t, IsGenerationError(fmt.Errorf("x: %w", NewGenerationError(PhaseUUID, "", "", nil))))
		assert.False(t, IsGenerationError(NewConfigError("x", nil, "")))
	})
}
