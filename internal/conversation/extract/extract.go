package extract

import (
	"regexp"
	"strings"

	"realty_agent_backend/internal/conversation/domain"
	"realty_agent_backend/platform/phone"
)

// Category keyword sets. Subtype keywords are disjoint per category and
// back-fill the category when they fire.
var categoryKeywords = map[string][]string{
	domain.CategoryResidential: {"residential", "resi", "home", "house", "flat", "apartment", "living", "stay", "residence"},
	domain.CategoryCommercial:  {"commercial", "office", "shop", "business", "retail", "store", "workspace", "work space"},
}

var residentialTypes = map[string][]string{
	"Apartments":         {"apartment", "apartments", "flat", "flats", "appartment", "appt", "unit"},
	"Villas":             {"villa", "villas", "bungalow", "banglow", "independent house", "kothi", "farmhouse"},
	"Residential Plots":  {"residential plot", "land plot", "plot", "land", "plat"},
	"Independent Floor":  {"independent floor", "builder floor", "single floor", "floor"},
	"Residential Studio": {"studio apartment", "studio", "bachelor pad", "single room"},
}

var commercialTypes = map[string][]string{
	"Office Space":    {"office space", "office", "workspace", "work space"},
	"Shop":            {"shop", "store", "retail"},
	"Commercial Plot": {"commercial plot"},
	"Showrooms":       {"showroom", "showrooms"},
}

var projectStatusKeywords = map[string][]string{
	"Launching Soon":     {"launching soon", "launching"},
	"New Launch":         {"new launch", "newly launched", "just launched"},
	"Under Construction": {"under construction", "construction"},
	"Ready To Move In":   {"ready to move", "ready possession", "move in ready"},
}

var possessionKeywords = map[string][]string{
	"3 Months":      {"3 months", "three months"},
	"6 Months":      {"6 months", "six months"},
	"1 Year":        {"1 year", "one year", "12 months"},
	"2+ Years":      {"2 years", "two years", "2+ years", "two plus years"},
	"Ready To Move": {"ready to move", "immediate possession", "immediately"},
}

var affirmativeWords = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay", "fine", "alright", "definitely",
	"absolutely", "please", "go ahead", "call me", "contact me", "haan", "ji", "thik hai",
}

var negativeWords = []string{
	"no", "nope", "nah", "not now", "later", "dont", "don't", "no thanks",
	"not interested", "nahi", "na", "mat karo", "baad mein",
}

var salutations = []string{
	"hi", "hello", "hey", "hii", "helo", "namaste", "namaskar",
	"good morning", "good afternoon", "good evening", "hi there",
}

var namePrefixes = []string{
	"my name is", "i am", "i'm", "im", "this is", "myself", "name is", "call me",
}

var bedroomWordNums = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"ek": "1", "do": "2", "teen": "3", "char": "4", "paanch": "5",
}

var (
	bhkRe   = regexp.MustCompile(`(\d)\s*(?:bhk|bk|bedroom|bed)`)
	phoneRe = regexp.MustCompile(`(?:\+?91)?([6-9]\d{9})`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Battery runs every independent field detector over the utterance and
// returns the partial field set they produced. Absent slots mean "not
// found", never a placeholder.
func Battery(utterance string) domain.Fields {
	var out domain.Fields
	norm := Normalize(utterance)
	if norm == "" {
		return out
	}

	if city := MatchCity(utterance); city != "" {
		out.Location = domain.Str(city)
	}
	if cat := DetectCategory(norm); cat != "" {
		out.PropertyCategory = domain.Str(cat)
	}
	if ptype, cat := DetectPropertyType(norm); ptype != "" {
		out.PropertyType = domain.Str(ptype)
		if out.PropertyCategory == nil && cat != "" {
			out.PropertyCategory = domain.Str(cat)
		}
	}
	if bhk := DetectBedroom(norm); bhk != "" {
		out.Bedroom = domain.Str(bhk)
	}
	if status := matchKeywordTable(norm, projectStatusKeywords); status != "" {
		out.ProjectStatus = domain.Str(status)
	}
	if poss := matchKeywordTable(norm, possessionKeywords); poss != "" {
		out.Possession = domain.Str(poss)
	}
	if budget, ok := ParseBudget(norm); ok {
		out.Budget = domain.Str(budget.Display)
	}
	if number := DetectPhone(utterance); number != "" {
		out.Phone = domain.Str(number)
	}
	if email := DetectEmail(utterance); email != "" {
		out.Email = domain.Str(email)
	}

	return out
}

// DetectCategory resolves the property category from its keyword sets.
func DetectCategory(norm string) string {
	return matchKeywordTable(norm, categoryKeywords)
}

// DetectPropertyType resolves a subtype from the two disjoint keyword
// sets. The second return value is the category the subtype implies.
func DetectPropertyType(norm string) (string, string) {
	if t := matchKeywordTable(norm, commercialTypes); t != "" {
		return t, domain.CategoryCommercial
	}
	if t := matchKeywordTable(norm, residentialTypes); t != "" {
		return t, domain.CategoryResidential
	}
	return "", ""
}

// DetectBedroom resolves a bedroom count: "<n> BHK" bounded to 1-5,
// word numbers (English and Hindi) next to a bedroom token, or studio.
func DetectBedroom(norm string) string {
	if m := bhkRe.FindStringSubmatch(norm); m != nil {
		n := m[1][0] - '0'
		if n >= 1 && n <= 5 {
			return string(m[1][0]) + " BHK"
		}
		return ""
	}

	hasUnit := strings.Contains(norm, "bhk") || strings.Contains(norm, "bedroom") ||
		strings.Contains(norm, " bk")
	if hasUnit {
		for word, num := range bedroomWordNums {
			if containsWord(norm, word) {
				return num + " BHK"
			}
		}
	}

	if strings.Contains(norm, "studio") || containsWord(norm, "1rk") ||
		containsWord(norm, "rk") || strings.Contains(norm, "bachelor") {
		return "Studio"
	}
	return ""
}

// DetectPhone finds an Indian mobile number, with or without the country
// code prefix, and returns the bare ten digit form.
func DetectPhone(utterance string) string {
	compact := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(utterance)
	locs := phoneRe.FindAllStringSubmatchIndex(compact, -1)
	for _, loc := range locs {
		// Reject matches embedded in longer digit runs.
		if loc[0] > 0 && isDigit(compact[loc[0]-1]) {
			continue
		}
		if loc[1] < len(compact) && isDigit(compact[loc[1]]) {
			continue
		}
		candidate := compact[loc[2]:loc[3]]
		if normalized := phone.NormalizeNational("+91" + candidate); normalized != "" {
			return normalized
		}
		return candidate
	}
	return ""
}

// DetectEmail finds an email address, translating spoken forms
// ("john at example dot com") first.
func DetectEmail(utterance string) string {
	text := strings.ToLower(strings.TrimSpace(utterance))
	replacer := strings.NewReplacer(
		" at the rate ", "@",
		" at rate ", "@",
		" at ", "@",
		" dot ", ".",
		" period ", ".",
		" underscore ", "_",
	)
	text = replacer.Replace(text)
	text = regexp.MustCompile(`\s*@\s*`).ReplaceAllString(text, "@")
	text = regexp.MustCompile(`\s*\.\s*`).ReplaceAllString(text, ".")
	return emailRe.FindString(text)
}

// MatchYesNo interprets a consent answer. The boolean result is only
// meaningful when ok is true.
func MatchYesNo(utterance string) (value bool, ok bool) {
	norm := Normalize(utterance)
	if norm == "" {
		return false, false
	}
	// Negatives are checked first: "no thanks" must not match "thanks ok".
	for _, w := range negativeWords {
		if containsPhrase(norm, Normalize(w)) {
			return false, true
		}
	}
	for _, w := range affirmativeWords {
		if containsPhrase(norm, Normalize(w)) {
			return true, true
		}
	}
	if MatchOption(norm, affirmativeWords, matchThreshold) != "" {
		return true, true
	}
	if MatchOption(norm, negativeWords, matchThreshold) != "" {
		return false, true
	}
	return false, false
}

// ExtractName pulls a person's name out of a greeting-stage answer.
// Bare salutations, alone or stacked, are rejected so neither "hello"
// nor "hi there" ever becomes a name.
func ExtractName(utterance string) string {
	norm := Normalize(utterance)
	if norm == "" || IsSalutation(norm) {
		return ""
	}
	for {
		// Strip the longest leading salutation so "hi there rahul"
		// loses "hi there", not just "hi".
		best := ""
		for _, s := range salutations {
			if strings.HasPrefix(norm, s+" ") && len(s) > len(best) {
				best = s
			}
		}
		if best == "" {
			break
		}
		norm = strings.TrimSpace(norm[len(best):])
		if IsSalutation(norm) {
			return ""
		}
	}
	for _, p := range namePrefixes {
		if strings.HasPrefix(norm, p+" ") {
			norm = strings.TrimSpace(strings.TrimPrefix(norm, p+" "))
			break
		}
	}
	if norm == "" {
		return ""
	}
	words := strings.Fields(norm)
	if len(words) > 4 {
		return ""
	}
	for _, w := range words {
		for _, r := range w {
			if !isLetterRune(r) {
				return ""
			}
		}
	}
	if _, ok := MatchYesNo(norm); ok && len(words) == 1 {
		return ""
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// IsSalutation reports whether the utterance is only a greeting word.
func IsSalutation(utterance string) bool {
	norm := Normalize(utterance)
	for _, s := range salutations {
		if norm == s {
			return true
		}
	}
	return false
}

func matchKeywordTable(norm string, table map[string][]string) string {
	bestKey := ""
	bestLen := 0
	for key, words := range table {
		for _, w := range words {
			if len(w) > bestLen && containsPhrase(norm, w) {
				bestKey = key
				bestLen = len(w)
			}
		}
	}
	return bestKey
}

// containsPhrase matches on word boundaries so "store" never fires
// inside "restored".
func containsPhrase(norm, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+norm+" ", " "+phrase+" ")
}

func containsWord(norm, word string) bool {
	return containsPhrase(norm, word)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetterRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
