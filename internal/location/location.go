// Package location normalizes free-text places and decides whether two of
// them are close enough to be treated as the same service area.
package location

import (
	"math"
	"strings"
)

const (
	// DefaultMaxDistanceKm is the radius used when callers do not supply one.
	DefaultMaxDistanceKm = 50.0

	earthRadiusKm = 6371.0
	unknown       = "unknown"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Location struct {
	City        string
	State       string
	FullAddress string
	Coordinates *Coordinates
}

func (l Location) IsUnknown() bool {
	return l.City == unknown && l.State == unknown
}

// Normalize splits raw on commas: the first part is the city and the second
// the state. A single part is used for both. Empty input yields "unknown".
func Normalize(raw string) Location {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Location{City: unknown, State: unknown, FullAddress: raw}
	}

	parts := strings.Split(trimmed, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) >= 2 {
		return Location{City: parts[0], State: parts[1], FullAddress: raw}
	}

	return Location{City: parts[0], State: parts[0], FullAddress: raw}
}

// Match reports whether a and b describe the same area. Exact city and state
// wins, then distance when both sides carry coordinates, then same state.
func Match(a, b Location, maxDistanceKm float64) bool {
	if a.IsUnknown() || b.IsUnknown() {
		return false
	}

	if strings.EqualFold(a.City, b.City) && strings.EqualFold(a.State, b.State) {
		return true
	}

	if a.Coordinates != nil && b.Coordinates != nil {
		return Distance(*a.Coordinates, *b.Coordinates) <= maxDistanceKm
	}

	return strings.EqualFold(a.State, b.State)
}

// MatchStrings normalizes both inputs and matches them at the default radius.
func MatchStrings(a, b string) bool {
	return Match(Normalize(a), Normalize(b), DefaultMaxDistanceKm)
}

// Distance is the haversine great-circle distance in kilometres.
func Distance(a, b Coordinates) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
