package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"casefile/pkg/platform/sentinel"
)

// SQLSTATE codes a retry can get past.
var unavailableCodes = map[pq.ErrorCode]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57P01": {}, // admin_shutdown
	"57P03": {}, // cannot_connect_now
}

// WrapErr prefixes err with action and marks lock conflicts and lost
// connections with sentinel.ErrUnavailable.
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
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if _, ok := unavailableCodes[pqErr.Code]; ok {
			return true
		}
		return pqErr.Code.Class() == "08" // connection_exception
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
