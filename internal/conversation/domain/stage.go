// Package domain holds the conversation state model: the stage graph,
// the collected field set, and the session. It has no I/O and no
// dependencies on other modules.
package domain

// Stage is one node in the conversation's ordered question graph.
type Stage string

const (
	StageGreeting           Stage = "greeting"
	StageLocation           Stage = "location"
	StagePropertyCategory   Stage = "property_category"
	StagePropertyType       Stage = "property_type"
	StageBedroom            Stage = "bedroom"
	StageProjectStatus      Stage = "project_status"
	StagePossession         Stage = "possession"
	StageSearchAndShow      Stage = "search_and_show"
	StageConsentAfterSearch Stage = "consent_after_search"
	StageBudget             Stage = "budget"
	StagePhone              Stage = "phone"
	StageEmail              Stage = "email"
	StageComplete           Stage = "complete"
	StageThankYou           Stage = "thank_you"
)

// Descriptor declares one stage: the field it collects, the question it
// asks, its quick-reply options, and its default-next edge. The flow table
// is immutable; sessions hold only their own stage pointer.
type Descriptor struct {
	Stage    Stage
	Field    FieldName
	Question string
	Options  []string
	Next     Stage

	// Control stages (search, consent, terminals) are never bypassed by
	// the skip-if-known rule.
	Control bool

	// ExtractOnly stages collect their field opportunistically from rich
	// utterances but are never prompted for.
	ExtractOnly bool

	// SkipIf bypasses the stage when the collected fields make it moot,
	// independent of whether its own field is known.
	SkipIf func(*Fields) bool
}

// Terminal reports whether the stage is absorbing.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageThankYou
}

var flow = map[Stage]Descriptor{
	StageGreeting: {
		Stage:    StageGreeting,
		Field:    FieldNameKey,
		Question: "Hello! Welcome to RealtyAssistant. May I know your good name?",
		Next:     StageLocation,
	},
	StageLocation: {
		Stage:    StageLocation,
		Field:    FieldLocation,
		Question: "Nice to meet you, {name}! Which city are you looking for property in?",
		Next:     StagePropertyCategory,
	},
	StagePropertyCategory: {
		Stage:    StagePropertyCategory,
		Field:    FieldPropertyCategory,
		Question: "Got it! Are you looking for a Residential or Commercial property?",
		Options:  []string{"Residential", "Commercial"},
		Next:     StagePropertyType,
	},
	StagePropertyType: {
		Stage:    StagePropertyType,
		Field:    FieldPropertyType,
		Question: "What type of property are you interested in?",
		Next:     StageBedroom,
	},
	StageBedroom: {
		Stage:    StageBedroom,
		Field:    FieldBedroom,
		Question: "How many bedrooms do you need? 1 BHK, 2 BHK, 3 BHK, or 4 BHK?",
		Options:  []string{"1 BHK", "2 BHK", "3 BHK", "4 BHK", "5 BHK", "Studio"},
		Next:     StageProjectStatus,
		// Commercial listings have no bedroom count.
		SkipIf: func(f *Fields) bool { return f.IsCommercial() },
	},
	StageProjectStatus: {
		Stage:       StageProjectStatus,
		Field:       FieldProjectStatus,
		Options:     []string{"Launching Soon", "New Launch", "Under Construction", "Ready To Move In"},
		Next:        StagePossession,
		ExtractOnly: true,
	},
	StagePossession: {
		Stage:       StagePossession,
		Field:       FieldPossession,
		Options:     []string{"3 Months", "6 Months", "1 Year", "2+ Years", "Ready To Move"},
		Next:        StageSearchAndShow,
		ExtractOnly: true,
	},
	StageSearchAndShow: {
		Stage:   StageSearchAndShow,
		Next:    StageConsentAfterSearch,
		Control: true,
	},
	StageConsentAfterSearch: {
		Stage:    StageConsentAfterSearch,
		Field:    FieldConsent,
		Question: "Would you like our property expert to call you with personalized recommendations?",
		Options:  []string{"Yes", "No"},
		Control:  true,
		// Next is computed from the answer: affirmative goes to budget,
		// anything else to thank_you.
	},
	StageBudget: {
		Stage:    StageBudget,
		Field:    FieldBudget,
		Question: "What's your budget range for this property?",
		Next:     StagePhone,
	},
	StagePhone: {
		Stage:    StagePhone,
		Field:    FieldPhone,
		Question: "What's the best phone number for our expert to reach you on?",
		Next:     StageEmail,
	},
	StageEmail: {
		Stage:    StageEmail,
		Field:    FieldEmail,
		Question: "Can you also share your email for property alerts?",
		Next:     StageComplete,
	},
	StageComplete: {
		Stage:    StageComplete,
		Question: "Thank you! Our property expert will contact you shortly with matching properties in {location}. Have a wonderful day!",
		Control:  true,
	},
	StageThankYou: {
		Stage:    StageThankYou,
		Question: "No problem! Thank you for your interest. Feel free to call us anytime. Have a great day!",
		Control:  true,
	},
}

// Flow returns the descriptor for a stage. The boolean is false for
// unknown stage names.
func Flow(s Stage) (Descriptor, bool) {
	d, ok := flow[s]
	return d, ok
}

// MustFlow returns the descriptor for a stage known to exist.
func MustFlow(s Stage) Descriptor {
	d, ok := flow[s]
	if !ok {
		panic("unknown stage: " + string(s))
	}
	return d
}
