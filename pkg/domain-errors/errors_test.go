package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause is preserved", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "candidate pool query failed")

		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
		assert.Equal(t, "candidate pool query failed: connection refused", err.Error())
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "duplicate pending match"))

	assert.True(t, HasCode(err, CodeConflict))
	assert.True(t, Is(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeUnavailable, "store down")))
	assert.True(t, IsRetryable(New(CodeTimeout, "slow")))
	assert.False(t, IsRetryable(New(CodeConflict, "dup")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
