package service

import (
	"context"
	"errors"
	"fmt"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
)

const (
	msgInvalidVictimIDs     = "One or more victim IDs are invalid"
	msgVictimByNameNotFound = "Victim not found with given name and family"
)

// VictimNotFound is the lookup failure for a victim identifier.
func VictimNotFound(victimID fmt.Stringer) error {
	return dErrors.Newf(dErrors.CodeNotFound, "Victim with ID %s not found", victimID)
}

// CaseNotFound is the lookup failure for a case identifier.
func CaseNotFound(caseID fmt.Stringer) error {
	return dErrors.Newf(dErrors.CodeNotFound, "Case with ID %s not found", caseID)
}

// InvalidVictimIDs is the failure for a victim list containing unknown identifiers.
func InvalidVictimIDs() error {
	return dErrors.New(dErrors.CodeNotFound, msgInvalidVictimIDs)
}

// RawKey keeps an unparsed identifier for NotFound messages.
type RawKey string

func (k RawKey) String() string { return string(k) }

func wrapVictimErr(err error, victimID id.VictimID, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return VictimNotFound(victimID)
	}
	return wrapStoreErr(err, action)
}

func wrapCaseErr(err error, caseID id.CaseID, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return CaseNotFound(caseID)
	}
	return wrapStoreErr(err, action)
}

// wrapStoreErr passes coded errors through untouched. Deadlines become
// timeouts, sentinel.ErrUnavailable a retryable failure, the rest internal.
func wrapStoreErr(err error, action string) error {
	if err == nil {
		return nil
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage is temporarily unavailable, retry the request")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

// runInTx runs fn in tx and codes whatever the boundary itself returns.
func runInTx(ctx context.Context, tx StoreTx, fn func(ctx context.Context) error) error {
	return wrapStoreErr(tx.RunInTx(ctx, fn), "complete transaction")
}

// asValidation turns model invariant violations into caller-facing validation errors.
func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
