package db

import (
	"context"
	"errors"
	"fmt"

	"wolontariat/internal/apperr"
)

// DefaultMaxAttempts bounds read-modify-write retries when no limit is configured
const DefaultMaxAttempts = 10

// RetryOnConflict runs attempt until it returns something other than
// apperr.ErrConflict. Each attempt must re-read the document it writes, so a
// retry re-validates against the newest state. Running out of attempts is
// reported as apperr.ErrStoreUnavailable because the caller can retry later.
func RetryOnConflict(ctx context.Context, maxAttempts int, attempt func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for i := 0; i < maxAttempts; i++ {
		err := attempt()
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, ctxErr)
		}
	}
	return fmt.Errorf("%w: gave up after %d conflicting writes", apperr.ErrStoreUnavailable, maxAttempts)
}
