package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountryFromPlace(t *testing.T) {
	tests := []struct {
		name     string
		place    string
		expected string
	}{
		{"trailing country", "10km NE of Chiang Mai, Thailand", "thailand"},
		{"multiple commas", "Kepulauan Talaud, North Sulawesi, Indonesia", "indonesia"},
		{"no comma", "  Banda Sea ", "banda sea"},
		{"alias with hyphen", "20 km S of Dili, Timor-Leste", "timor-leste"},
		{"trailing comma", "Somewhere,", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountryFromPlace(tt.place))
		})
	}
}

func TestCountrySet_Contains(t *testing.T) {
	s := NewCountrySet(DefaultTargetCountries...)

	assert.True(t, s.Contains("thailand"))
	assert.True(t, s.Contains(" Myanmar "))
	assert.True(t, s.Contains("burma"))
	assert.True(t, s.Contains("East Timor"))
	assert.True(t, s.Contains("timor-leste"))
	assert.False(t, s.Contains("japan"))
	assert.False(t, s.Contains(""))
	assert.Equal(t, len(DefaultTargetCountries), s.Len())
}

func TestNewCountrySet_DropsBlankEntries(t *testing.T) {
	s := NewCountrySet("Laos", "", "   ", "LAOS")
	assert.Equal(t, []string{"laos"}, s.Names())
}
