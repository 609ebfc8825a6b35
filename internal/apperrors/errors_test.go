package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationWrapsSentinel(t *testing.T) {
	err := Validation("chapter %d: date out of range", 3)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "chapter 3: date out of range", Reason(err))
	assert.Equal(t, "validation failed: chapter 3: date out of range", err.Error())
}

func TestReasonThroughWrapping(t *testing.T) {
	err := fmt.Errorf("saving: %w", Conflict("group is full"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "group is full", Reason(err))
	assert.Equal(t, "not found", Reason(ErrNotFound))
}
