package search

import (
	"net/url"
	"strings"
	"testing"
)

func TestCityID_Resolution(t *testing.T) {
	cases := []struct {
		location string
		id       int
		ok       bool
	}{
		{"Noida", 10, true},
		{"noida", 10, true},
		{"Greater Noida West", 21, true},
		{"Greater Noida", 5, true},
		{"Gurugram", 9, true},
		{"gurgaon", 9, true},
		{"Bengaluru", 2, true},
		{"bangalore", 2, true},
		{"Navi Mumbai", 11, true},
		{"Mumbai", 1, true},
		{"", 0, false},
		{"Paris", 0, false},
	}
	for _, tc := range cases {
		id, ok := CityID(tc.location)
		if id != tc.id || ok != tc.ok {
			t.Errorf("CityID(%q) = (%d, %v), want (%d, %v)", tc.location, id, ok, tc.id, tc.ok)
		}
	}
}

func TestCityID_CompoundResolvedBeforeContainedBase(t *testing.T) {
	// "greater noida west" contains both "greater noida" and "noida";
	// the longest name must win.
	id, ok := CityID("somewhere in greater noida west please")
	if !ok || id != 21 {
		t.Fatalf("CityID = (%d, %v), want (21, true)", id, ok)
	}
}

func mustParseQuery(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("bad url %q: %v", rawURL, err)
	}
	return u.Query()
}

func TestBuildURL_ResidentialQuery(t *testing.T) {
	raw := BuildURL("https://listings.example.com/", Query{
		Location:      "Noida",
		Category:      "Residential",
		PropertyType:  "Apartments",
		Bedroom:       "3 BHK",
		ProjectStatus: "Under Construction",
	})

	if !strings.HasPrefix(raw, "https://listings.example.com/properties?") {
		t.Fatalf("unexpected url prefix: %q", raw)
	}
	params := mustParseQuery(t, raw)
	if got := params.Get("city"); got != "10" {
		t.Errorf("city = %q, want 10", got)
	}
	if got := params.Get("property_category"); got != "1" {
		t.Errorf("property_category = %q, want 1", got)
	}
	if got := params.Get("property_type"); got != "Apartments" {
		t.Errorf("property_type = %q, want Apartments", got)
	}
	if got := params.Get("bedroom"); got != "3 BHK" {
		t.Errorf("bedroom = %q, want 3 BHK", got)
	}
	if got := params.Get("project_status"); got != "Under Construction" {
		t.Errorf("project_status = %q", got)
	}
	if got := params.Get("submit"); got != "Search" {
		t.Errorf("submit = %q, want Search", got)
	}
}

func TestBuildURL_CommercialByTypeAlone(t *testing.T) {
	// An office subtype implies the commercial category even when the
	// category slot was never collected.
	raw := BuildURL("https://listings.example.com", Query{
		Location:     "Gurugram",
		PropertyType: "Office Space",
	})

	params := mustParseQuery(t, raw)
	if got := params.Get("property_category"); got != "4" {
		t.Errorf("property_category = %q, want 4", got)
	}
	if got := params.Get("property_type"); got != "Office Space" {
		t.Errorf("property_type = %q, want Office Space", got)
	}
	if params.Has("bedroom") {
		t.Errorf("commercial query must not carry a bedroom param")
	}
}

func TestBuildURL_SparseQueryOmitsUnknowns(t *testing.T) {
	raw := BuildURL("https://listings.example.com", Query{Location: "Pune"})

	params := mustParseQuery(t, raw)
	if got := params.Get("city"); got != "8" {
		t.Errorf("city = %q, want 8", got)
	}
	for _, key := range []string{"property_category", "property_type", "bedroom", "project_status", "possession"} {
		if params.Has(key) {
			t.Errorf("unexpected %s param in sparse query: %q", key, params.Get(key))
		}
	}
}

func TestBuildURL_UnknownCityStillSearchable(t *testing.T) {
	raw := BuildURL("https://listings.example.com", Query{
		Location: "Atlantis",
		Category: "Residential",
		Bedroom:  "Studio",
	})

	params := mustParseQuery(t, raw)
	if params.Has("city") {
		t.Errorf("unknown city must not emit a city param, got %q", params.Get("city"))
	}
	if got := params.Get("bedroom"); got != "Studio" {
		t.Errorf("bedroom = %q, want Studio", got)
	}
	if got := params.Get("property_type"); got != "Apartments" {
		t.Errorf("residential default type = %q, want Apartments", got)
	}
}
