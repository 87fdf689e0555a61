package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// MaxVictimAge is the inclusive upper bound on a victim's age.
const MaxVictimAge = 100

// Victim is a person recorded against at most one case.
//
// Invariants:
//   - Name, Family and MurderMethod are non-empty
//   - Age is in (0, MaxVictimAge]
//   - when CaseID is set, that case lists this victim and vice versa
type Victim struct {
	ID           id.VictimID `json:"id"`
	Name         string      `json:"name"`
	Age          int         `json:"age"`
	Family       string      `json:"family"`
	MurderMethod string      `json:"murderMethod"`
	CaseID       *id.CaseID  `json:"caseId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// VictimDetails is a victim with its case reference resolved.
type VictimDetails struct {
	*Victim
	Case *Case
}

// NewVictim builds a victim that satisfies the field invariants.
func NewVictim(victimID id.VictimID, name string, age int, family, murderMethod string, caseID *id.CaseID, now time.Time) (*Victim, error) {
	v := &Victim{
		ID:           victimID,
		Name:         name,
		Age:          age,
		Family:       family,
		MurderMethod: strings.TrimSpace(murderMethod),
		CaseID:       caseID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := v.Check(); err != nil {
		return nil, err
	}
	return v, nil
}

// Check re-validates field invariants, used after partial updates.
func (v *Victim) Check() error {
	if strings.TrimSpace(v.Name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "victim name cannot be empty")
	}
	if strings.TrimSpace(v.Family) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "victim family cannot be empty")
	}
	if v.MurderMethod == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "murder method cannot be empty")
	}
	if v.Age <= 0 || v.Age > MaxVictimAge {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "age must be between 1 and %d", MaxVictimAge)
	}
	return nil
}

// HasCase reports whether the victim is assigned to a case.
func (v *Victim) HasCase() bool {
	return v.CaseID != nil && !v.CaseID.IsNil()
}

// BelongsTo reports whether the victim is assigned to caseID.
func (v *Victim) BelongsTo(caseID id.CaseID) bool {
	return v.HasCase() && *v.CaseID == caseID
}

// AssignCase points the victim at caseID, or unassigns it when caseID is nil.
func (v *Victim) AssignCase(caseID *id.CaseID, now time.Time) {
	if caseID != nil && caseID.IsNil() {
		caseID = nil
	}
	if caseID != nil {
		c := *caseID
		caseID = &c
	}
	v.CaseID = caseID
	v.UpdatedAt = now
}

// Clone returns a deep copy so stores never share pointers with callers.
func (v *Victim) Clone() *Victim {
	if v == nil {
		return nil
	}
	c := *v
	if v.CaseID != nil {
		cid := *v.CaseID
		c.CaseID = &cid
	}
	return &c
}

// VictimPatch carries the supplied fields of a partial victim update.
// A non-nil CaseID pointing at a nil ID unassigns the victim.
type VictimPatch struct {
	Name         *string
	Age          *int
	Family       *string
	MurderMethod *string
	CaseID       *id.CaseID
}

// ChangesCase reports whether applying the patch may move the victim between cases.
func (p VictimPatch) ChangesCase(v *Victim) bool {
	if p.CaseID == nil {
		return false
	}
	if p.CaseID.IsNil() {
		return v.HasCase()
	}
	return !v.BelongsTo(*p.CaseID)
}

// Apply copies the scalar fields of the patch onto v. Case assignment is
// left to the caller, which must keep both sides of the link in step.
func (p VictimPatch) Apply(v *Victim, now time.Time) error {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Age != nil {
		v.Age = *p.Age
	}
	if p.Family != nil {
		v.Family = *p.Family
	}
	if p.MurderMethod != nil {
		v.MurderMethod = strings.TrimSpace(*p.MurderMethod)
	}
	v.UpdatedAt = now
	return v.Check()
}
