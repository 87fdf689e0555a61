package handler

import (
	"math"
	"strings"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	pstrings "casefile/pkg/platform/strings"
)

// CreateVictimRequest is the body of POST /victims.
type CreateVictimRequest struct {
	Name         string   `json:"name" sanitize:"verbatim"`
	Age          *float64 `json:"age"`
	Family       string   `json:"family" sanitize:"verbatim"`
	MurderMethod string   `json:"murderMethod"`
	CaseID       *string  `json:"caseId,omitempty"`
}

func (r *CreateVictimRequest) Normalize() {
	sanitize(r)
}

func (r *CreateVictimRequest) Validate() error {
	if blank(r.Name) {
		return dErrors.New(dErrors.CodeValidation, "name should not be empty")
	}
	if r.Age == nil {
		return dErrors.New(dErrors.CodeValidation, "age should not be empty")
	}
	if err := validateAge(*r.Age); err != nil {
		return err
	}
	if blank(r.Family) {
		return dErrors.New(dErrors.CodeValidation, "family should not be empty")
	}
	if r.MurderMethod == "" {
		return dErrors.New(dErrors.CodeValidation, "murderMethod should not be empty")
	}
	return nil
}

// Command parses the case reference. An empty caseId means no case.
func (r *CreateVictimRequest) Command() (service.CreateVictimCommand, error) {
	cmd := service.CreateVictimCommand{
		Name:         r.Name,
		Age:          int(*r.Age),
		Family:       r.Family,
		MurderMethod: r.MurderMethod,
	}
	if r.CaseID != nil && *r.CaseID != "" {
		caseID, err := parseCaseRef(*r.CaseID)
		if err != nil {
			return cmd, err
		}
		cmd.CaseID = &caseID
	}
	return cmd, nil
}

// UpdateVictimRequest is the partial body of PATCH /victims/{id} and
// PATCH /victims/search. Omitted fields are left untouched.
type UpdateVictimRequest struct {
	Name         *string  `json:"name,omitempty" sanitize:"verbatim"`
	Age          *float64 `json:"age,omitempty"`
	Family       *string  `json:"family,omitempty" sanitize:"verbatim"`
	MurderMethod *string  `json:"murderMethod,omitempty"`
	CaseID       *string  `json:"caseId,omitempty"`
}

func (r *UpdateVictimRequest) Normalize() {
	sanitize(r)
}

func (r *UpdateVictimRequest) Validate() error {
	if r.Name != nil && blank(*r.Name) {
		return dErrors.New(dErrors.CodeValidation, "name should not be empty")
	}
	if r.Age != nil {
		if err := validateAge(*r.Age); err != nil {
			return err
		}
	}
	if r.Family != nil && blank(*r.Family) {
		return dErrors.New(dErrors.CodeValidation, "family should not be empty")
	}
	if r.MurderMethod != nil && *r.MurderMethod == "" {
		return dErrors.New(dErrors.CodeValidation, "murderMethod should not be empty")
	}
	return nil
}

// Patch converts the request. A supplied empty caseId unassigns the victim.
func (r *UpdateVictimRequest) Patch() (models.VictimPatch, error) {
	patch := models.VictimPatch{
		Name:         r.Name,
		Family:       r.Family,
		MurderMethod: r.MurderMethod,
	}
	if r.Age != nil {
		age := int(*r.Age)
		patch.Age = &age
	}
	if r.CaseID != nil {
		var caseID id.CaseID
		if *r.CaseID != "" {
			parsed, err := parseCaseRef(*r.CaseID)
			if err != nil {
				return patch, err
			}
			caseID = parsed
		}
		patch.CaseID = &caseID
	}
	return patch, nil
}

// CreateCaseRequest is the body of POST /cases.
type CreateCaseRequest struct {
	Detective   string   `json:"detective"`
	Victims     []string `json:"victims"`
	Weapon      string   `json:"weapon"`
	Description string   `json:"description,omitempty"`
	Suspect     string   `json:"suspect,omitempty"`
}

func (r *CreateCaseRequest) Normalize() {
	sanitize(r)
}

func (r *CreateCaseRequest) Validate() error {
	if r.Detective == "" {
		return dErrors.New(dErrors.CodeValidation, "detective should not be empty")
	}
	if len(r.Victims) == 0 {
		return dErrors.New(dErrors.CodeValidation, "victims must contain at least 1 element")
	}
	if r.Weapon == "" {
		return dErrors.New(dErrors.CodeValidation, "weapon should not be empty")
	}
	return nil
}

func (r *CreateCaseRequest) Command() (service.CreateCaseCommand, error) {
	victimIDs, err := parseVictimRefs(r.Victims)
	if err != nil {
		return service.CreateCaseCommand{}, err
	}
	return service.CreateCaseCommand{
		Detective:   r.Detective,
		Weapon:      r.Weapon,
		Description: r.Description,
		Suspect:     r.Suspect,
		Victims:     victimIDs,
	}, nil
}

// UpdateCaseRequest is the partial body of PATCH /cases/{id}.
type UpdateCaseRequest struct {
	Detective   *string  `json:"detective,omitempty"`
	Victims     []string `json:"victims,omitempty"`
	Weapon      *string  `json:"weapon,omitempty"`
	Description *string  `json:"description,omitempty"`
	Suspect     *string  `json:"suspect,omitempty"`
}

// Normalize dedupes victims: an update replaces the set, so repeats carry no meaning.
func (r *UpdateCaseRequest) Normalize() {
	sanitize(r)
	if r.Victims != nil {
		r.Victims = pstrings.DedupeAndTrim(r.Victims)
	}
}

func (r *UpdateCaseRequest) Validate() error {
	if r.Detective != nil && *r.Detective == "" {
		return dErrors.New(dErrors.CodeValidation, "detective should not be empty")
	}
	if r.Victims != nil && len(r.Victims) == 0 {
		return dErrors.New(dErrors.CodeValidation, "victims must contain at least 1 element")
	}
	if r.Weapon != nil && *r.Weapon == "" {
		return dErrors.New(dErrors.CodeValidation, "weapon should not be empty")
	}
	return nil
}

func (r *UpdateCaseRequest) Patch() (models.CasePatch, error) {
	patch := models.CasePatch{
		Detective:   r.Detective,
		Weapon:      r.Weapon,
		Description: r.Description,
		Suspect:     r.Suspect,
	}
	if r.Victims != nil {
		victimIDs, err := parseVictimRefs(r.Victims)
		if err != nil {
			return patch, err
		}
		patch.Victims = victimIDs
	}
	return patch, nil
}

func validateAge(age float64) error {
	if age != math.Trunc(age) {
		return dErrors.New(dErrors.CodeValidation, "age must be an integer number")
	}
	if age <= 0 {
		return dErrors.New(dErrors.CodeValidation, "age must be a positive number")
	}
	if age > models.MaxVictimAge {
		return dErrors.Newf(dErrors.CodeValidation, "age must not be greater than %d", models.MaxVictimAge)
	}
	return nil
}

// parseCaseRef maps an unparseable reference to NotFound: it can never resolve.
func parseCaseRef(raw string) (id.CaseID, error) {
	caseID, err := id.ParseCaseID(raw)
	if err != nil {
		return caseID, service.CaseNotFound(service.RawKey(raw))
	}
	return caseID, nil
}

func parseVictimRefs(raw []string) ([]id.VictimID, error) {
	victimIDs, err := id.ParseVictimIDs(raw)
	if err != nil {
		return nil, service.InvalidVictimIDs()
	}
	return victimIDs, nil
}

// blank rejects names made only of whitespace. Name and family are otherwise
// kept byte for byte because lookups by them are exact.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
