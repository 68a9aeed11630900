package domain

import (
	"sort"
	"strings"
)

// DefaultTargetCountries lists the ASEAN member states, lowercased, including
// the aliases the feed and geocoders are known to use.
var DefaultTargetCountries = []string{
	"thailand", "myanmar", "burma", "laos", "cambodia", "vietnam",
	"malaysia", "singapore", "indonesia", "philippines",
	"brunei", "timor-leste", "east timor",
}

// CountrySet is an immutable set of lowercased country names.
type CountrySet struct {
	names map[string]struct{}
}

// NewCountrySet builds a set from names, normalizing case and whitespace and
// dropping empty entries.
func NewCountrySet(names ...string) CountrySet {
	s := CountrySet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = normalizeCountry(n)
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether country (already normalized or not) is in the set.
func (s CountrySet) Contains(country string) bool {
	country = normalizeCountry(country)
	if country == "" {
		return false
	}
	_, ok := s.names[country]
	return ok
}

// Len returns the number of names in the set.
func (s CountrySet) Len() int { return len(s.names) }

// Names returns the set members in sorted order.
func (s CountrySet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CountryFromPlace extracts a candidate country from a feed place string. The
// feed appends the country after the last comma ("10 km NE of Chiang Mai,
// Thailand"); descriptions without a comma ("Banda Sea") are returned whole.
// The result is trimmed and lowercased.
func CountryFromPlace(place string) string {
	if i := strings.LastIndex(place, ","); i >= 0 {
		place = place[i+1:]
	}
	return normalizeCountry(place)
}

func normalizeCountry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
