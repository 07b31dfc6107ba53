// Package transport defines the response DTOs for the operator leads API.
package transport

import (
	"time"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/platform/phone"
)

// LeadResponse is one lead row as exposed to operators.
type LeadResponse struct {
	SessionID        string    `json:"sessionId"`
	Name             *string   `json:"name"`
	Phone            *string   `json:"phone"`
	Email            *string   `json:"email"`
	Location         *string   `json:"location"`
	PropertyCategory *string   `json:"propertyCategory"`
	PropertyType     *string   `json:"propertyType"`
	Bedroom          *string   `json:"bedroom"`
	ProjectStatus    *string   `json:"projectStatus"`
	Possession       *string   `json:"possession"`
	Budget           *string   `json:"budget"`
	PropertiesFound  int       `json:"propertiesFound"`
	SearchURL        string    `json:"searchUrl,omitempty"`
	Consent          bool      `json:"consent"`
	Qualified        bool      `json:"qualified"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FromLead maps a stored lead to its API shape. Phone numbers are
// stored in the national ten digit form and exposed as E.164 so
// operators can dial them directly.
func FromLead(l leadstore.Lead) LeadResponse {
	return LeadResponse{
		SessionID:        l.SessionID,
		Name:             l.Name,
		Phone:            dialablePhone(l.Phone),
		Email:            l.Email,
		Location:         l.Location,
		PropertyCategory: l.PropertyCategory,
		PropertyType:     l.PropertyType,
		Bedroom:          l.Bedroom,
		ProjectStatus:    l.ProjectStatus,
		Possession:       l.Possession,
		Budget:           l.Budget,
		PropertiesFound:  l.PropertiesFound,
		SearchURL:        l.SearchURL,
		Consent:          l.Consent,
		Qualified:        l.Qualified,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func dialablePhone(p *string) *string {
	if p == nil || !phone.IsValid(*p) {
		return p
	}
	e164 := phone.NormalizeE164(*p)
	return &e164
}

// ListResponse wraps a page of leads.
type ListResponse struct {
	Leads  []LeadResponse `json:"leads"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TranscriptResponse returns the conversation turns for one session.
type TranscriptResponse struct {
	SessionID string        `json:"sessionId"`
	Turns     []domain.Turn `json:"turns"`
}
