package db

import (
	"context"
	"errors"
	"testing"

	"wolontariat/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryOnConflict(ctx, 5, func() error {
		calls++
		if calls < 3 {
			return apperr.ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RetryOnConflict(ctx, 4, func() error {
		calls++
		return apperr.ErrConflict
	})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Equal(t, 4, calls)

	other := errors.New("other")
	calls = 0
	err = RetryOnConflict(ctx, 4, func() error {
		calls++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}
