package domain

import "strings"

// FieldName identifies one declared slot in the collected field set.
type FieldName string

const (
	FieldNameKey          FieldName = "name"
	FieldLocation         FieldName = "location"
	FieldPropertyCategory FieldName = "property_category"
	FieldPropertyType     FieldName = "property_type"
	FieldBedroom          FieldName = "bedroom"
	FieldProjectStatus    FieldName = "project_status"
	FieldPossession       FieldName = "possession"
	FieldBudget           FieldName = "budget"
	FieldPhone            FieldName = "phone"
	FieldEmail            FieldName = "email"
	FieldConsent          FieldName = "consent"
)

// Canonical property categories.
const (
	CategoryResidential = "Residential"
	CategoryCommercial  = "Commercial"
)

// Fields is the fixed-schema collected field set. Nil slots mean "not yet
// collected". Writes go through Merge, which enforces first-write-wins;
// name is the one re-askable field (callers correct misheard names).
type Fields struct {
	Name             *string
	Location         *string
	PropertyCategory *string
	PropertyType     *string
	Bedroom          *string
	ProjectStatus    *string
	Possession       *string
	Budget           *string
	Phone            *string
	Email            *string
	Consent          *bool
}

// Merge folds extracted values into the set. Existing values win over
// later ones, except Name which may be rewritten. It returns the names
// of the fields that were newly (or re-) assigned.
func (f *Fields) Merge(ext Fields) []FieldName {
	var set []FieldName

	if ext.Name != nil && (f.Name == nil || *ext.Name != *f.Name) {
		f.Name = ext.Name
		set = append(set, FieldNameKey)
	}
	if ext.Location != nil && f.Location == nil {
		f.Location = ext.Location
		set = append(set, FieldLocation)
	}
	if ext.PropertyCategory != nil && f.PropertyCategory == nil {
		f.PropertyCategory = ext.PropertyCategory
		set = append(set, FieldPropertyCategory)
	}
	if ext.PropertyType != nil && f.PropertyType == nil {
		f.PropertyType = ext.PropertyType
		set = append(set, FieldPropertyType)
	}
	if ext.Bedroom != nil && f.Bedroom == nil {
		f.Bedroom = ext.Bedroom
		set = append(set, FieldBedroom)
	}
	if ext.ProjectStatus != nil && f.ProjectStatus == nil {
		f.ProjectStatus = ext.ProjectStatus
		set = append(set, FieldProjectStatus)
	}
	if ext.Possession != nil && f.Possession == nil {
		f.Possession = ext.Possession
		set = append(set, FieldPossession)
	}
	if ext.Budget != nil && f.Budget == nil {
		f.Budget = ext.Budget
		set = append(set, FieldBudget)
	}
	if ext.Phone != nil && f.Phone == nil {
		f.Phone = ext.Phone
		set = append(set, FieldPhone)
	}
	if ext.Email != nil && f.Email == nil {
		f.Email = ext.Email
		set = append(set, FieldEmail)
	}
	if ext.Consent != nil && f.Consent == nil {
		f.Consent = ext.Consent
		set = append(set, FieldConsent)
	}

	return set
}

// Has reports whether the named slot holds a value.
func (f *Fields) Has(name FieldName) bool {
	switch name {
	case FieldNameKey:
		return f.Name != nil
	case FieldLocation:
		return f.Location != nil
	case FieldPropertyCategory:
		return f.PropertyCategory != nil
	case FieldPropertyType:
		return f.PropertyType != nil
	case FieldBedroom:
		return f.Bedroom != nil
	case FieldProjectStatus:
		return f.ProjectStatus != nil
	case FieldPossession:
		return f.Possession != nil
	case FieldBudget:
		return f.Budget != nil
	case FieldPhone:
		return f.Phone != nil
	case FieldEmail:
		return f.Email != nil
	case FieldConsent:
		return f.Consent != nil
	}
	return false
}

// Value returns the display string for the named slot, empty when unset.
func (f *Fields) Value(name FieldName) string {
	switch name {
	case FieldNameKey:
		return deref(f.Name)
	case FieldLocation:
		return deref(f.Location)
	case FieldPropertyCategory:
		return deref(f.PropertyCategory)
	case FieldPropertyType:
		return deref(f.PropertyType)
	case FieldBedroom:
		return deref(f.Bedroom)
	case FieldProjectStatus:
		return deref(f.ProjectStatus)
	case FieldPossession:
		return deref(f.Possession)
	case FieldBudget:
		return deref(f.Budget)
	case FieldPhone:
		return deref(f.Phone)
	case FieldEmail:
		return deref(f.Email)
	case FieldConsent:
		if f.Consent == nil {
			return ""
		}
		if *f.Consent {
			return "yes"
		}
		return "no"
	}
	return ""
}

// IsCommercial reports whether the collected category is the commercial one.
func (f *Fields) IsCommercial() bool {
	return f.PropertyCategory != nil &&
		strings.EqualFold(*f.PropertyCategory, CategoryCommercial)
}

// ConsentGranted reports an explicit affirmative consent.
func (f *Fields) ConsentGranted() bool {
	return f.Consent != nil && *f.Consent
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Str is a convenience for building optional string slots.
func Str(v string) *string { return &v }

// BoolPtr is a convenience for building the consent slot.
func BoolPtr(v bool) *bool { return &v }
