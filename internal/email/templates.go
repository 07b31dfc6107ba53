package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"realty_agent_backend/internal/leadstore"
)

//go:embed templates/*.html
var templateFS embed.FS

type leadSummaryData struct {
	Name            string
	Phone           string
	Email           string
	Location        string
	Category        string
	PropertyType    string
	Bedroom         string
	ProjectStatus   string
	Possession      string
	Budget          string
	PropertiesFound int
	SearchURL       string
	Consent         bool
	Qualified       bool
	CapturedAt      string
}

func renderLeadSummary(lead leadstore.Lead) (string, error) {
	data := leadSummaryData{
		Name:            orDash(lead.Name),
		Phone:           orDash(lead.Phone),
		Email:           orDash(lead.Email),
		Location:        orDash(lead.Location),
		Category:        orDash(lead.PropertyCategory),
		PropertyType:    orDash(lead.PropertyType),
		Bedroom:         orDash(lead.Bedroom),
		ProjectStatus:   orDash(lead.ProjectStatus),
		Possession:      orDash(lead.Possession),
		Budget:          orDash(lead.Budget),
		PropertiesFound: lead.PropertiesFound,
		SearchURL:       lead.SearchURL,
		Consent:         lead.Consent,
		Qualified:       lead.Qualified,
		CapturedAt:      lead.UpdatedAt.Format("02 Jan 2006 15:04 MST"),
	}

	tmpl, err := template.ParseFS(templateFS, "templates/lead_summary.html")
	if err != nil {
		return "", fmt.Errorf("parse lead summary template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render lead summary: %w", err)
	}
	return buf.String(), nil
}

func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
