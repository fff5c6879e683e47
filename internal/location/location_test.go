package location

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestNormalize(t *testing.T) {
	loc := Normalize("Mumbai, Maharashtra")
	check.Equal(t, "Mumbai", loc.City)
	check.Equal(t, "Maharashtra", loc.State)
	check.Equal(t, "Mumbai, Maharashtra", loc.FullAddress)

	loc = Normalize("  Andheri East , Mumbai , Maharashtra ")
	check.Equal(t, "Andheri East", loc.City)
	check.Equal(t, "Mumbai", loc.State)
}

func TestNormalize_SinglePart(t *testing.T) {
	loc := Normalize("Delhi")
	check.Equal(t, "Delhi", loc.City)
	check.Equal(t, "Delhi", loc.State)
	check.False(t, loc.IsUnknown())
}

func TestNormalize_Empty(t *testing.T) {
	check.True(t, Normalize("").IsUnknown())
	check.True(t, Normalize("   ").IsUnknown())
}

func TestMatchStrings(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"same state fallback", "Mumbai, Maharashtra", "Pune, Maharashtra", true},
		{"different state", "Mumbai, Maharashtra", "Chennai, Tamil Nadu", false},
		{"exact match ignores case", "mumbai, MAHARASHTRA", "Mumbai, Maharashtra", true},
		{"single part equals state", "Delhi", "New Delhi, Delhi", true},
		{"empty never matches", "", "Mumbai, Maharashtra", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, MatchStrings(tt.a, tt.b))
		})
	}
}

func TestMatch_Coordinates(t *testing.T) {
	mumbai := Normalize("Mumbai, Maharashtra")
	mumbai.Coordinates = &Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	pune := Normalize("Pune, Maharashtra")
	pune.Coordinates = &Coordinates{Latitude: 18.5204, Longitude: 73.8567}
	thane := Normalize("Thane, Maharashtra")
	thane.Coordinates = &Coordinates{Latitude: 19.2183, Longitude: 72.9781}

	// Coordinates override the same-state fallback.
	check.False(t, Match(mumbai, pune, DefaultMaxDistanceKm))
	check.True(t, Match(mumbai, pune, 200))
	check.True(t, Match(mumbai, thane, DefaultMaxDistanceKm))
}

func TestDistance(t *testing.T) {
	mumbai := Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	pune := Coordinates{Latitude: 18.5204, Longitude: 73.8567}

	d := Distance(mumbai, pune)
	check.True(t, d > 115 && d < 125)
	check.Equal(t, 0.0, Distance(mumbai, mumbai))
}

func TestCanonicalize(t *testing.T) {
	check.Equal(t, "Mumbai, Maharashtra", Canonicalize("Mumbai"))
	check.Equal(t, "Bangalore, Karnataka", Canonicalize("  bangalore "))
	check.Equal(t, "Pune, Maharashtra", Canonicalize("Pune Camp"))
	check.Equal(t, "Surat, India", Canonicalize("Surat"))
	check.Equal(t, "Nagpur, Maharashtra", Canonicalize("Nagpur, Maharashtra"))
	check.Equal(t, "", Canonicalize(""))
}

func TestSuggestions(t *testing.T) {
	check.Equal(t, []string{"Mumbai, Maharashtra", "Pune, Maharashtra"}, Suggestions("maha"))
	check.Equal(t, []string{"Delhi, Delhi"}, Suggestions("DEL"))
	check.Equal(t, 0, len(Suggestions("zzz")))
	check.Equal(t, 0, len(Suggestions("")))
	check.True(t, len(Suggestions("a")) <= maxSuggestions)
}
