// Package domain holds identifier primitives shared across the casefile packages.
//
// IDs are distinct named types over uuid.UUID so a victim identifier can never be
// passed where a case identifier is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "casefile/pkg/domain-errors"
)

type (
	VictimID uuid.UUID
	CaseID   uuid.UUID
)

// NewVictimID returns a fresh random victim identifier.
func NewVictimID() VictimID { return VictimID(uuid.New()) }

// NewCaseID returns a fresh random case identifier.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

func ParseVictimID(s string) (VictimID, error) {
	u, err := parseUUID(s, "victim ID")
	return VictimID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case ID")
	return CaseID(u), err
}

// ParseVictimIDs parses every element, stopping at the first invalid one.
func ParseVictimIDs(values []string) ([]VictimID, error) {
	ids := make([]VictimID, 0, len(values))
	for _, v := range values {
		parsed, err := ParseVictimID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func (id VictimID) String() string { return uuid.UUID(id).String() }
func (id VictimID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id VictimID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *VictimID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id CaseID) String() string { return uuid.UUID(id).String() }
func (id CaseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CaseID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CaseID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// VictimIDStrings renders ids for drivers that take string sets.
func VictimIDStrings(ids []VictimID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// CaseIDStrings renders ids for drivers that take string sets.
func CaseIDStrings(ids []CaseID) []string {
	out := make([]string, len(ids))
	for i, c := range ids {
		out[i] = c.String()
	}
	return out
}
