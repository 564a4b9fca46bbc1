// SPDX-License-Identifier: MIT

package container

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff runs op until it succeeds, fails permanently, or
// maxAttempts invocations have been made. op reports via its retry return
// whether a failure is worth another attempt; permanent failures are
// returned as-is. The wait between attempts starts at baseBackoff and
// doubles each round, and ctx cancellation cuts the wait short.
//
// The attempt counter passed to op starts at zero so callers can log
// "retrying" only on later rounds.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	wait := baseBackoff
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return lastErr
}
