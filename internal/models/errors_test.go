package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := Validationf("%s is required", "productName")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "productName is required", PublicMessage(err))

	wrapped := fmt.Errorf("create: %w", Forbidden("Not authorized to update this product"))
	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.Equal(t, "Not authorized to update this product", PublicMessage(wrapped))
}

func TestUnexpectedKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Unexpected("Error creating product", cause)

	assert.True(t, errors.Is(err, ErrUnexpected))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Error creating product", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPublicMessageForForeignError(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("boom")))
}
