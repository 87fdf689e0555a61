package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"casefile/pkg/platform/sentinel"
)

// WrapErr prefixes err with action. Network failures, server timeouts and
// transactions that stayed transient through the driver's retries are marked
// with sentinel.ErrUnavailable.
func WrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", action, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isUnavailable(err error) bool {
	// caller deadlines stay timeouts
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}
