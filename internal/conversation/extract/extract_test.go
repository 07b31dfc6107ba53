package extract

import "testing"

func TestMatchCity_AliasesAndAreas(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"noida", "Noida"},
		{"I want a flat in Noyda", "Noida"},
		{"greater noida west", "Greater Noida West"},
		{"looking near noida extension", "Greater Noida West"},
		{"gaur city", "Greater Noida West"},
		{"greater noida", "Greater Noida"},
		{"gurgaon", "Gurugram"},
		{"banglore", "Bengaluru"},
		{"somewhere in andheri", "Mumbai"},
		{"bandra please", "Mumbai"},
		{"new bombay", "Navi Mumbai"},
		{"paris", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MatchCity(tt.in); got != tt.want {
			t.Errorf("MatchCity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchCity_CompoundNeverSwallowedByShorter(t *testing.T) {
	// "greater noida west" contains both "noida" and "greater noida";
	// the longest alias must win.
	if got := MatchCity("show me flats in greater noida west"); got != "Greater Noida West" {
		t.Fatalf("expected Greater Noida West, got %q", got)
	}
}

func TestMatchOption_Resolution(t *testing.T) {
	options := []string{"Residential", "Commercial"}
	tests := []struct {
		in   string
		want string
	}{
		{"residential", "Residential"},
		{"resi", "Residential"},
		{"commrcial", "Commercial"},
		{"a shop maybe", ""},
	}
	for _, tt := range tests {
		if got := MatchOption(tt.in, options, 0.6); got != tt.want {
			t.Errorf("MatchOption(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectBedroom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3 bhk", "3 BHK"},
		{"3bhk", "3 BHK"},
		{"2 bedroom flat", "2 BHK"},
		{"three bhk please", "3 BHK"},
		{"do bhk", "2 BHK"},
		{"studio apartment", "Studio"},
		{"6 bhk", ""},
		{"0 bhk", ""},
		{"big house", ""},
	}
	for _, tt := range tests {
		if got := DetectBedroom(Normalize(tt.in)); got != tt.want {
			t.Errorf("DetectBedroom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectPropertyType_BackfillsCategory(t *testing.T) {
	ptype, cat := DetectPropertyType(Normalize("looking for an office space"))
	if ptype != "Office Space" || cat != "Commercial" {
		t.Fatalf("expected Office Space/Commercial, got %q/%q", ptype, cat)
	}
	ptype, cat = DetectPropertyType(Normalize("a villa would be nice"))
	if ptype != "Villas" || cat != "Residential" {
		t.Fatalf("expected Villas/Residential, got %q/%q", ptype, cat)
	}
}

func TestDetectPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765 43210", "9876543210"},
		{"call me on 98765-43210 please", "9876543210"},
		{"my number is 919876543210", "9876543210"},
		{"9876543210123", ""},
		{"1234567890", ""},
		{"no number here", ""},
	}
	for _, tt := range tests {
		if got := DetectPhone(tt.in); got != tt.want {
			t.Errorf("DetectPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rahul@gmail.com", "rahul@gmail.com"},
		{"Rahul.Sharma@Example.COM", "rahul.sharma@example.com"},
		{"rahul at gmail dot com", "rahul@gmail.com"},
		{"rahul underscore s at the rate gmail dot com", "rahul_s@gmail.com"},
		{"no email", ""},
	}
	for _, tt := range tests {
		if got := DetectEmail(tt.in); got != tt.want {
			t.Errorf("DetectEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchYesNo(t *testing.T) {
	tests := []struct {
		in    string
		value bool
		ok    bool
	}{
		{"yes", true, true},
		{"yes please", true, true},
		{"haan ji", true, true},
		{"go ahead", true, true},
		{"no", false, true},
		{"no thanks", false, true},
		{"nahi", false, true},
		{"not interested", false, true},
		{"hmm maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		value, ok := MatchYesNo(tt.in)
		if value != tt.value || ok != tt.ok {
			t.Errorf("MatchYesNo(%q) = (%v, %v), want (%v, %v)", tt.in, value, ok, tt.value, tt.ok)
		}
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rahul", "Rahul"},
		{"my name is rahul sharma", "Rahul Sharma"},
		{"hello my name is priya", "Priya"},
		{"myself amit", "Amit"},
		{"hi", ""},
		{"hi there", ""},
		{"hello hi", ""},
		{"hi there rahul", "Rahul"},
		{"good morning", ""},
		{"yes", ""},
		{"call me at 9876543210", ""},
		{"i am looking for something in a nice locality", ""},
	}
	for _, tt := range tests {
		if got := ExtractName(tt.in); got != tt.want {
			t.Errorf("ExtractName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in      string
		display string
		min     int64
		max     int64
		ok      bool
	}{
		{"75 lakhs", "75 Lakhs", 7_500_000, 7_500_000, true},
		{"around 50 lacs", "50 Lakhs", 5_000_000, 5_000_000, true},
		{"1.5 cr", "1.5 Crore", 15_000_000, 15_000_000, true},
		{"50-70 lakhs", "50-70 Lakhs", 5_000_000, 7_000_000, true},
		{"50 to 70 lakhs", "50-70 Lakhs", 5_000_000, 7_000_000, true},
		{"70-50 lakhs", "50-70 Lakhs", 5_000_000, 7_000_000, true},
		{"75", "", 0, 0, false},
		{"a big budget", "", 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseBudget(Normalize(tt.in))
		if ok != tt.ok {
			t.Errorf("ParseBudget(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if got.Display != tt.display || got.Min != tt.min || got.Max != tt.max {
			t.Errorf("ParseBudget(%q) = %+v, want %s [%d, %d]", tt.in, got, tt.display, tt.min, tt.max)
		}
	}
}

func TestBattery_RichUtterance(t *testing.T) {
	fields := Battery("I am looking for a 3 bhk apartment in noida under 75 lakhs, number 9876543210")

	if fields.Location == nil || *fields.Location != "Noida" {
		t.Fatalf("expected location Noida, got %v", fields.Location)
	}
	if fields.PropertyCategory == nil || *fields.PropertyCategory != "Residential" {
		t.Fatalf("expected category Residential, got %v", fields.PropertyCategory)
	}
	if fields.PropertyType == nil || *fields.PropertyType != "Apartments" {
		t.Fatalf("expected type Apartments, got %v", fields.PropertyType)
	}
	if fields.Bedroom == nil || *fields.Bedroom != "3 BHK" {
		t.Fatalf("expected 3 BHK, got %v", fields.Bedroom)
	}
	if fields.Budget == nil || *fields.Budget != "75 Lakhs" {
		t.Fatalf("expected budget 75 Lakhs, got %v", fields.Budget)
	}
	if fields.Phone == nil || *fields.Phone != "9876543210" {
		t.Fatalf("expected phone 9876543210, got %v", fields.Phone)
	}
	if fields.Email != nil {
		t.Fatalf("expected no email, got %v", *fields.Email)
	}
}

func TestBattery_StatusAndPossession(t *testing.T) {
	fields := Battery("ready to move in, something under construction is also fine")

	if fields.ProjectStatus == nil {
		t.Fatalf("expected a project status")
	}
	if fields.Possession == nil || *fields.Possession != "Ready To Move" {
		t.Fatalf("expected possession Ready To Move, got %v", fields.Possession)
	}
}
