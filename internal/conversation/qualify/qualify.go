// Package qualify decides whether a finished session produced a
// qualified lead. Pure function, no I/O.
package qualify

// Verdict carries the decision plus the breakdown of each checked
// condition so callers and tests can assert on the reasoning.
type Verdict struct {
	Qualified       bool `json:"qualified"`
	ConsentGranted  bool `json:"consentGranted"`
	PropertiesFound int  `json:"propertiesFound"`
	HasMatches      bool `json:"hasMatches"`
}

// Evaluate returns the qualification verdict: qualified iff the caller
// consented to contact and at least one matching property was found.
func Evaluate(consent bool, propertiesFound int) Verdict {
	hasMatches := propertiesFound > 0
	return Verdict{
		Qualified:       consent && hasMatches,
		ConsentGranted:  consent,
		PropertiesFound: propertiesFound,
		HasMatches:      hasMatches,
	}
}
