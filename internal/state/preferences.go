package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidUnit = errors.New("invalid temperature unit")

type TempUnit string

const (
	Celsius    TempUnit = "C"
	Fahrenheit TempUnit = "F"
)

func (u TempUnit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// Symbol returns the unit as shown next to a temperature.
func (u TempUnit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// ParseTempUnit accepts "c", "f", "celsius" and "fahrenheit" in any case.
func ParseTempUnit(s string) (TempUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// UserPreferences is the single process-wide user state.
type UserPreferences struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	ProfileImageURL string   `json:"profileImageUrl"`
	Location        string   `json:"location"`
	FavouriteCities []string `json:"favouriteCities"`
	TempUnit        TempUnit `json:"tempUnit"`
}

func Default() UserPreferences {
	return UserPreferences{
		FavouriteCities: []string{},
		TempUnit:        Celsius,
	}
}

// IsLoggedIn is derived from the identity fields; it is never stored.
func (p UserPreferences) IsLoggedIn() bool {
	return p.Name != "" || p.Email != "" || p.ProfileImageURL != ""
}

func (p UserPreferences) IsFavourite(city string) bool {
	return slices.Contains(p.FavouriteCities, strings.TrimSpace(city))
}

// Clone returns a copy that shares no memory with p.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	out.FavouriteCities = slices.Clone(p.FavouriteCities)
	if out.FavouriteCities == nil {
		out.FavouriteCities = []string{}
	}
	return out
}

func (p UserPreferences) sameIdentity(o UserPreferences) bool {
	return p.Name == o.Name &&
		p.Email == o.Email &&
		p.ProfileImageURL == o.ProfileImageURL
}

func (p UserPreferences) samePreferences(o UserPreferences) bool {
	return p.TempUnit == o.TempUnit && slices.Equal(p.FavouriteCities, o.FavouriteCities)
}
