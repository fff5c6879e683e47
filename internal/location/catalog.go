package location

import "strings"

const (
	maxSuggestions  = 5
	fallbackCountry = "India"
)

type knownCity struct {
	city  string
	state string
}

func (k knownCity) String() string {
	return k.city + ", " + k.state
}

// knownCities is ordered; Canonicalize takes the first city contained in the
// input, so the order decides ties.
var knownCities = []knownCity{
	{"Mumbai", "Maharashtra"},
	{"Delhi", "Delhi"},
	{"Bangalore", "Karnataka"},
	{"Chennai", "Tamil Nadu"},
	{"Kolkata", "West Bengal"},
	{"Hyderabad", "Telangana"},
	{"Pune", "Maharashtra"},
	{"Ahmedabad", "Gujarat"},
	{"Jaipur", "Rajasthan"},
	{"Lucknow", "Uttar Pradesh"},
}

// Canonicalize turns user input into the "City, State" form stored on
// consignments. Input that already has a comma is kept as typed.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.Contains(trimmed, ",") {
		return trimmed
	}

	lower := strings.ToLower(trimmed)
	for _, known := range knownCities {
		if strings.Contains(lower, strings.ToLower(known.city)) {
			return known.String()
		}
	}

	return trimmed + ", " + fallbackCountry
}

// Suggestions returns up to five known locations containing query,
// case-insensitively.
func Suggestions(query string) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	suggestions := make([]string, 0, maxSuggestions)
	if needle == "" {
		return suggestions
	}

	for _, known := range knownCities {
		full := known.String()
		if strings.Contains(strings.ToLower(full), needle) {
			suggestions = append(suggestions, full)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}

	return suggestions
}
