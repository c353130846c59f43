package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrSchema, "missing Name or Employee column")
	require.True(t, errors.Is(err, ErrSchema))
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "missing Name or Employee column", err.Message)
	assert.False(t, errors.Is(err, ErrInvalidCategory))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("disk full"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Contains(t, appErr.Error(), "disk full")

	typed := FromError(fmt.Errorf("context: %w", ErrNotFound))
	assert.Equal(t, ErrNotFound.Code, typed.Code)
	assert.Nil(t, FromError(nil))
}
