package leadstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Lead is a single captured lead keyed by conversation session.
// Optional slots stay nil until the conversation surfaces them.
type Lead struct {
	SessionID        string     `json:"session_id"`
	Name             *string    `json:"name,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	Email            *string    `json:"email,omitempty"`
	Location         *string    `json:"location,omitempty"`
	PropertyCategory *string    `json:"property_category,omitempty"`
	PropertyType     *string    `json:"property_type,omitempty"`
	Bedroom          *string    `json:"bedroom,omitempty"`
	ProjectStatus    *string    `json:"project_status,omitempty"`
	Possession       *string    `json:"possession,omitempty"`
	Budget           *string    `json:"budget,omitempty"`
	PropertiesFound  int        `json:"properties_found"`
	SearchURL        string     `json:"search_url,omitempty"`
	Consent          bool       `json:"consent"`
	Qualified        bool       `json:"qualified"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// merge folds an incoming write into an existing row. Scalar slots keep
// the latest non-nil value; flags and counters take the incoming value;
// created_at is preserved from the first write.
func merge(existing, incoming Lead) Lead {
	out := incoming
	out.Name = pickLatest(existing.Name, incoming.Name)
	out.Phone = pickLatest(existing.Phone, incoming.Phone)
	out.Email = pickLatest(existing.Email, incoming.Email)
	out.Location = pickLatest(existing.Location, incoming.Location)
	out.PropertyCategory = pickLatest(existing.PropertyCategory, incoming.PropertyCategory)
	out.PropertyType = pickLatest(existing.PropertyType, incoming.PropertyType)
	out.Bedroom = pickLatest(existing.Bedroom, incoming.Bedroom)
	out.ProjectStatus = pickLatest(existing.ProjectStatus, incoming.ProjectStatus)
	out.Possession = pickLatest(existing.Possession, incoming.Possession)
	out.Budget = pickLatest(existing.Budget, incoming.Budget)
	if incoming.SearchURL == "" {
		out.SearchURL = existing.SearchURL
	}
	out.CreatedAt = existing.CreatedAt
	return out
}

func pickLatest(existing, incoming *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}

// checksum returns the hex SHA-256 over a canonical encoding of every
// persisted column. Nil slots encode distinctly from empty strings so a
// tampered NULL cannot collide with "".
func (l Lead) checksum() string {
	parts := []string{
		l.SessionID,
		encodeOpt(l.Name),
		encodeOpt(l.Phone),
		encodeOpt(l.Email),
		encodeOpt(l.Location),
		encodeOpt(l.PropertyCategory),
		encodeOpt(l.PropertyType),
		encodeOpt(l.Bedroom),
		encodeOpt(l.ProjectStatus),
		encodeOpt(l.Possession),
		encodeOpt(l.Budget),
		strconv.Itoa(l.PropertiesFound),
		l.SearchURL,
		encodeBool(l.Consent),
		encodeBool(l.Qualified),
		strconv.FormatInt(l.CreatedAt.UTC().Unix(), 10),
		strconv.FormatInt(l.UpdatedAt.UTC().Unix(), 10),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func encodeOpt(v *string) string {
	if v == nil {
		return "\x00"
	}
	return "s:" + *v
}

func encodeBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
