package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// cityIDs maps canonical city names (and a few legacy aliases) to the
// listing site's numeric city identifiers.
var cityIDs = map[string]int{
	"noida":              10,
	"greater noida":      5,
	"greater noida west": 21,
	"lucknow":            6,
	"gurugram":           9,
	"gurgaon":            9,
	"ghaziabad":          16,
	"pune":               8,
	"thane":              17,
	"mumbai":             1,
	"navi mumbai":        11,
	"dehradun":           18,
	"agra":               19,
	"vrindavan":          20,
	"delhi":              4,
	"varanasi":           15,
	"bengaluru":          2,
	"bangalore":          2,
}

// Listing site category identifiers.
const (
	categoryIDResidential = 1
	categoryIDCommercial  = 4
)

// citiesByLength is used for containment matching so a compound name
// ("Greater Noida West") is resolved before its contained base name.
var citiesByLength []string

func init() {
	for city := range cityIDs {
		citiesByLength = append(citiesByLength, city)
	}
	sort.Slice(citiesByLength, func(i, j int) bool {
		if len(citiesByLength[i]) != len(citiesByLength[j]) {
			return len(citiesByLength[i]) > len(citiesByLength[j])
		}
		return citiesByLength[i] < citiesByLength[j]
	})
}

// CityID resolves a location string to the site's city identifier.
func CityID(location string) (int, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return 0, false
	}
	for _, city := range citiesByLength {
		if strings.Contains(loc, city) {
			return cityIDs[city], true
		}
	}
	return 0, false
}

// BuildURL constructs the listing search URL for the query, mirroring
// the site's search form parameters.
func BuildURL(baseURL string, q Query) string {
	params := url.Values{}

	if id, ok := CityID(q.Location); ok {
		params.Set("city", strconv.Itoa(id))
	}

	if strings.EqualFold(q.Category, "Commercial") || looksCommercial(q.PropertyType) {
		params.Set("property_category", strconv.Itoa(categoryIDCommercial))
		if t := commercialTypeParam(q.PropertyType); t != "" {
			params.Set("property_type", t)
		}
	} else if q.Category != "" || q.PropertyType != "" {
		params.Set("property_category", strconv.Itoa(categoryIDResidential))
		params.Set("property_type", residentialTypeParam(q.PropertyType))
	}

	if b := bedroomParam(q.Bedroom); b != "" {
		params.Set("bedroom", b)
	}
	if q.ProjectStatus != "" {
		params.Set("project_status", q.ProjectStatus)
	}
	if q.Possession != "" {
		params.Set("possession", q.Possession)
	}
	params.Set("submit", "Search")

	return strings.TrimRight(baseURL, "/") + "/properties?" + params.Encode()
}

func looksCommercial(propertyType string) bool {
	t := strings.ToLower(propertyType)
	return strings.Contains(t, "commercial") || strings.Contains(t, "office") ||
		strings.Contains(t, "shop") || strings.Contains(t, "showroom")
}

func commercialTypeParam(propertyType string) string {
	t := strings.ToLower(propertyType)
	switch {
	case strings.Contains(t, "shop"):
		return "Shop"
	case strings.Contains(t, "office"):
		return "Office Space"
	case strings.Contains(t, "plot"):
		return "Commercial Plot"
	case strings.Contains(t, "showroom"):
		return "Showrooms"
	}
	return ""
}

func residentialTypeParam(propertyType string) string {
	t := strings.ToLower(propertyType)
	switch {
	case strings.Contains(t, "villa"):
		return "Villas"
	case strings.Contains(t, "plot"):
		return "Residential Plots"
	case strings.Contains(t, "floor"), strings.Contains(t, "independent"):
		return "Independent Floor"
	case strings.Contains(t, "studio"):
		return "Residential Studio"
	default:
		return "Apartments"
	}
}

func bedroomParam(bedroom string) string {
	b := strings.ToLower(strings.TrimSpace(bedroom))
	if b == "" {
		return ""
	}
	if strings.Contains(b, "studio") {
		return "Studio"
	}
	for n := 1; n <= 5; n++ {
		if strings.HasPrefix(b, strconv.Itoa(n)) {
			return strconv.Itoa(n) + " BHK"
		}
	}
	return ""
}
