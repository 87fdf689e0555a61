package handler

import (
	"time"

	"casefile/internal/casefile/models"
)

type VictimResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Family       string    `json:"family"`
	MurderMethod string    `json:"murderMethod"`
	CaseID       *string   `json:"caseId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VictimDetailsResponse is a victim with its case embedded.
type VictimDetailsResponse struct {
	VictimResponse
	Case *CaseResponse `json:"case,omitempty"`
}

type CaseResponse struct {
	ID          string    `json:"id"`
	Detective   string    `json:"detective"`
	Weapon      string    `json:"weapon"`
	Description string    `json:"description,omitempty"`
	Suspect     string    `json:"suspect,omitempty"`
	Victims     []string  `json:"victims"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CaseDetailsResponse is a case with its victim references expanded.
type CaseDetailsResponse struct {
	ID          string            `json:"id"`
	Detective   string            `json:"detective"`
	Weapon      string            `json:"weapon"`
	Description string            `json:"description,omitempty"`
	Suspect     string            `json:"suspect,omitempty"`
	Victims     []*VictimResponse `json:"victims"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toVictimResponse(v *models.Victim) *VictimResponse {
	resp := &VictimResponse{
		ID:           v.ID.String(),
		Name:         v.Name,
		Age:          v.Age,
		Family:       v.Family,
		MurderMethod: v.MurderMethod,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.HasCase() {
		caseID := v.CaseID.String()
		resp.CaseID = &caseID
	}
	return resp
}

func toVictimDetailsResponse(d *models.VictimDetails) *VictimDetailsResponse {
	resp := &VictimDetailsResponse{VictimResponse: *toVictimResponse(d.Victim)}
	if d.Case != nil {
		resp.Case = toCaseResponse(d.Case)
	}
	return resp
}

func toVictimDetailsResponses(details []*models.VictimDetails) []*VictimDetailsResponse {
	out := make([]*VictimDetailsResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toVictimDetailsResponse(d))
	}
	return out
}

func toCaseResponse(c *models.Case) *CaseResponse {
	victims := make([]string, 0, len(c.Victims))
	for _, v := range c.Victims {
		victims = append(victims, v.String())
	}
	return &CaseResponse{
		ID:          c.ID.String(),
		Detective:   c.Detective,
		Weapon:      c.Weapon,
		Description: c.Description,
		Suspect:     c.Suspect,
		Victims:     victims,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCaseDetailsResponse(d *models.CaseDetails) *CaseDetailsResponse {
	victims := make([]*VictimResponse, 0, len(d.VictimRecords))
	for _, v := range d.VictimRecords {
		victims = append(victims, toVictimResponse(v))
	}
	return &CaseDetailsResponse{
		ID:          d.ID.String(),
		Detective:   d.Detective,
		Weapon:      d.Weapon,
		Description: d.Description,
		Suspect:     d.Suspect,
		Victims:     victims,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toCaseDetailsResponses(details []*models.CaseDetails) []*CaseDetailsResponse {
	out := make([]*CaseDetailsResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toCaseDetailsResponse(d))
	}
	return out
}
