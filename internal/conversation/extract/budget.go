package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Indian numbering units in rupees.
const (
	rupeesPerLakh  = 100_000
	rupeesPerCrore = 10_000_000
)

// Budget is a parsed budget declaration. Display is the canonical user
// facing form ("75 Lakhs", "1.5 Crore", "50-70 Lakhs"); Min and Max are
// rupee amounts (equal for a single value).
type Budget struct {
	Display string
	Min     int64
	Max     int64
}

var (
	budgetRangeRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*(lakh|lakhs|lac|lacs|crore|crores|cr)`)
	budgetSingleRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(lakh|lakhs|lac|lacs|crore|crores|cr)`)
)

// ParseBudget extracts a budget from a normalized utterance. A unit token
// is required: bare numbers are ambiguous (they could be phone digits or
// bedroom counts) and are left to other detectors.
func ParseBudget(norm string) (Budget, bool) {
	norm = stripBudgetFiller(norm)

	if m := budgetRangeRe.FindStringSubmatch(norm); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		unit := unitRupees(m[3])
		return Budget{
			Display: fmt.Sprintf("%s-%s %s", trimFloat(lo), trimFloat(hi), unitLabel(m[3])),
			Min:     int64(lo * float64(unit)),
			Max:     int64(hi * float64(unit)),
		}, true
	}

	if m := budgetSingleRe.FindStringSubmatch(norm); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		unit := unitRupees(m[2])
		amount := int64(v * float64(unit))
		return Budget{
			Display: fmt.Sprintf("%s %s", trimFloat(v), unitLabel(m[2])),
			Min:     amount,
			Max:     amount,
		}, true
	}

	return Budget{}, false
}

// stripBudgetFiller removes words that commonly pad a spoken budget
// ("around 75 lakhs", "budget is 1 crore").
func stripBudgetFiller(norm string) string {
	for _, filler := range []string{"around", "about", "approx", "approximately", "budget is", "budget of", "my budget", "budget", "upto", "up to", "under", "within", "max", "maximum"} {
		norm = strings.ReplaceAll(norm, filler, " ")
	}
	return strings.Join(strings.Fields(norm), " ")
}

func unitRupees(unit string) int64 {
	if strings.HasPrefix(unit, "cr") {
		return rupeesPerCrore
	}
	return rupeesPerLakh
}

func unitLabel(unit string) string {
	if strings.HasPrefix(unit, "cr") {
		return "Crore"
	}
	return "Lakhs"
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return s
}
