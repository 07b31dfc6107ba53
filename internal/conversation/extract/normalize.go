// Package extract provides the fuzzy normalizer and the field detector
// battery. Everything here is a pure function over a single utterance:
// no state, no I/O.
package extract

import (
	"sort"
	"strings"
	"unicode"
)

// matchThreshold is the minimum similarity ratio before the normalizer
// prefers "no match" over a guess.
const matchThreshold = 0.6

// cityAliases maps each canonical city to its recognized spellings and
// transliterations. Canonical names are stored lowercase; Canonical()
// title-cases on the way out.
var cityAliases = map[string][]string{
	"noida":              {"noida", "noyda", "noeda", "naida", "noda", "nodia"},
	"greater noida":      {"greater noida", "greater noyda", "big noida", "greater naida", "greaternoida"},
	"greater noida west": {"greater noida west", "noida west", "noida extension", "gnw", "gaur city"},
	"lucknow":            {"lucknow", "lakhnou", "lakhnau", "lucnow", "luknow"},
	"gurugram":           {"gurugram", "gurgaon", "gurugaon", "ggn", "gurgram", "gurugraam"},
	"ghaziabad":          {"ghaziabad", "gaziabad", "gzb", "gaziyabad", "ghaziabat"},
	"pune":               {"pune", "poona", "puna", "poone"},
	"thane":              {"thane", "thana", "thaney", "tane"},
	"mumbai":             {"mumbai", "bombay", "mumbay", "bambai", "mumby"},
	"navi mumbai":        {"navi mumbai", "new mumbai", "new bombay", "navimumbai"},
	"dehradun":           {"dehradun", "dehradoon", "dehra dun", "dehradhun", "doon"},
	"agra":               {"agra", "aagra", "agara"},
	"vrindavan":          {"vrindavan", "brindavan", "vrindaavan", "vrundavan", "mathura vrindavan"},
	"delhi":              {"delhi", "dilli", "new delhi", "deli", "dehli"},
	"varanasi":           {"varanasi", "banaras", "benares", "kashi", "varanashi"},
	"bengaluru":          {"bengaluru", "bangalore", "banglore", "bangaluru", "blr"},
}

// mumbaiAreas are localities that resolve to Mumbai.
var mumbaiAreas = []string{
	"andheri", "bandra", "malad", "goregaon", "powai", "worli", "borivali",
	"kandivali", "juhu", "khar", "santacruz", "versova", "lokhandwala",
	"oshiwara", "wadala", "dadar", "parel", "lower parel", "bkc", "kurla",
	"ghatkopar", "mulund", "vikhroli", "chembur", "colaba", "marine lines",
	"crawford market", "churchgate", "nariman point", "fort", "mahalaxmi",
}

// cityAliasOrder lists every (alias, canonical) pair longest-alias-first
// so a compound name is never swallowed by a shorter contained one.
var cityAliasOrder []aliasPair

type aliasPair struct {
	alias     string
	canonical string
}

func init() {
	for canonical, aliases := range cityAliases {
		for _, alias := range aliases {
			cityAliasOrder = append(cityAliasOrder, aliasPair{alias: alias, canonical: canonical})
		}
	}
	sort.Slice(cityAliasOrder, func(i, j int) bool {
		if len(cityAliasOrder[i].alias) != len(cityAliasOrder[j].alias) {
			return len(cityAliasOrder[i].alias) > len(cityAliasOrder[j].alias)
		}
		return cityAliasOrder[i].alias < cityAliasOrder[j].alias
	})
}

// Normalize lowercases, strips punctuation, and collapses whitespace.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case r == '.' || r == '@' || r == '+' || r == '-':
			// Kept for email/phone/budget tokens.
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// similarity returns a ratio in [0, 1] based on edit distance.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	dist := levenshtein(a, b)
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(dist)/float64(max)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// MatchOption resolves free text to one of the canonical options: exact
// match first, then substring containment (longer options checked first),
// then an edit-distance fallback gated by the threshold. Returns "" when
// nothing clears the bar.
func MatchOption(text string, options []string, threshold float64) string {
	norm := Normalize(text)
	if norm == "" {
		return ""
	}

	ordered := append([]string(nil), options...)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	for _, opt := range ordered {
		if Normalize(opt) == norm {
			return opt
		}
	}
	for _, opt := range ordered {
		optNorm := Normalize(opt)
		if optNorm == "" {
			continue
		}
		if strings.Contains(norm, optNorm) || strings.Contains(optNorm, norm) {
			return opt
		}
	}

	best := ""
	bestRatio := threshold
	for _, opt := range ordered {
		ratio := similarity(norm, Normalize(opt))
		if ratio >= bestRatio {
			bestRatio = ratio
			best = opt
		}
	}
	return best
}

// MatchCity resolves a noisy utterance to a canonical city name.
// Mumbai localities resolve to Mumbai; alias containment runs longest
// alias first; an edit-distance pass over individual words is the last
// resort. Returns "" for no confident match.
func MatchCity(text string) string {
	norm := Normalize(text)
	if norm == "" {
		return ""
	}

	padded := " " + norm + " "
	for _, pair := range cityAliasOrder {
		if strings.Contains(padded, " "+pair.alias+" ") || norm == pair.alias {
			return titleCity(pair.canonical)
		}
	}
	for _, area := range mumbaiAreas {
		if strings.Contains(padded, " "+area+" ") {
			return titleCity("mumbai")
		}
	}

	best := ""
	bestRatio := matchThreshold
	words := strings.Fields(norm)
	for _, pair := range cityAliasOrder {
		ratio := similarity(norm, pair.alias)
		for _, w := range words {
			if r := similarity(w, pair.alias); r > ratio {
				ratio = r
			}
		}
		if ratio > bestRatio {
			bestRatio = ratio
			best = pair.canonical
		}
	}
	if best == "" {
		return ""
	}
	return titleCity(best)
}

// Cities returns every canonical city name, title-cased.
func Cities() []string {
	out := make([]string, 0, len(cityAliases))
	for c := range cityAliases {
		out = append(out, titleCity(c))
	}
	sort.Strings(out)
	return out
}

func titleCity(lower string) string {
	words := strings.Fields(lower)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
