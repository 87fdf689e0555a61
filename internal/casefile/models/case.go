package models

import (
	"slices"
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// Case is an investigation referencing the victims recorded against it.
//
// Invariants:
//   - Detective and Weapon are non-empty
//   - Victims has set semantics (no duplicates, order irrelevant)
//   - every victim in Victims exists and points back at this case
type Case struct {
	ID          id.CaseID     `json:"id"`
	Detective   string        `json:"detective"`
	Weapon      string        `json:"weapon"`
	Description string        `json:"description,omitempty"`
	Suspect     string        `json:"suspect,omitempty"`
	Victims     []id.VictimID `json:"victims"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CaseDetails is a case with its victim references resolved.
type CaseDetails struct {
	*Case
	VictimRecords []*Victim
}

// NewCase builds a case that satisfies the field invariants. The victim list
// is deduplicated and must not be empty.
func NewCase(caseID id.CaseID, detective, weapon, description, suspect string, victims []id.VictimID, now time.Time) (*Case, error) {
	c := &Case{
		ID:          caseID,
		Detective:   strings.TrimSpace(detective),
		Weapon:      strings.TrimSpace(weapon),
		Description: strings.TrimSpace(description),
		Suspect:     strings.TrimSpace(suspect),
		Victims:     UniqueVictims(victims),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	if len(c.Victims) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case must reference at least one victim")
	}
	return c, nil
}

// Check re-validates field invariants, used after partial updates.
func (c *Case) Check() error {
	if c.Detective == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "detective cannot be empty")
	}
	if c.Weapon == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "weapon cannot be empty")
	}
	return nil
}

func (c *Case) HasVictim(victimID id.VictimID) bool {
	return slices.Contains(c.Victims, victimID)
}

// AddVictim is a set-union add. Reports whether the set changed.
func (c *Case) AddVictim(victimID id.VictimID) bool {
	if c.HasVictim(victimID) {
		return false
	}
	c.Victims = append(c.Victims, victimID)
	return true
}

// RemoveVictim reports whether victimID was present.
func (c *Case) RemoveVictim(victimID id.VictimID) bool {
	idx := slices.Index(c.Victims, victimID)
	if idx < 0 {
		return false
	}
	c.Victims = slices.Delete(c.Victims, idx, idx+1)
	return true
}

// Clone returns a deep copy so stores never share slices with callers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Victims = slices.Clone(c.Victims)
	if cp.Victims == nil {
		cp.Victims = []id.VictimID{}
	}
	return &cp
}

// CasePatch carries the supplied fields of a partial case update.
type CasePatch struct {
	Detective   *string
	Weapon      *string
	Description *string
	Suspect     *string
	Victims     []id.VictimID
}

// Apply copies the scalar fields of the patch onto c. The victim set is
// reconciled by the caller through DiffVictims.
func (p CasePatch) Apply(c *Case, now time.Time) error {
	if p.Detective != nil {
		c.Detective = strings.TrimSpace(*p.Detective)
	}
	if p.Weapon != nil {
		c.Weapon = strings.TrimSpace(*p.Weapon)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Suspect != nil {
		c.Suspect = strings.TrimSpace(*p.Suspect)
	}
	c.UpdatedAt = now
	return c.Check()
}

// UniqueVictims drops duplicate ids, keeping first-seen order.
func UniqueVictims(ids []id.VictimID) []id.VictimID {
	out := make([]id.VictimID, 0, len(ids))
	seen := make(map[id.VictimID]struct{}, len(ids))
	for _, v := range ids {
		if v.IsNil() {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DiffVictims returns the ids in next but not current (added) and the ids in
// current but not next (removed).
func DiffVictims(current, next []id.VictimID) (added, removed []id.VictimID) {
	for _, v := range UniqueVictims(next) {
		if !slices.Contains(current, v) {
			added = append(added, v)
		}
	}
	for _, v := range UniqueVictims(current) {
		if !slices.Contains(next, v) {
			removed = append(removed, v)
		}
	}
	return added, removed
}
