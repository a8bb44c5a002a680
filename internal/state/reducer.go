package state

import (
	"slices"
	"strings"
)

// Reduce applies a to s and returns the new state. s is never modified.
// Actions whose precondition fails return an equal copy of s.
func Reduce(s UserPreferences, a Action) UserPreferences {
	next := s.Clone()

	switch a := a.(type) {
	case SignIn:
		next.Name = a.Name
		next.Email = a.Email
		next.ProfileImageURL = a.ProfileImageURL

	case SignOut:
		next.Name = ""
		next.Email = ""
		next.ProfileImageURL = ""

	case SetLocation:
		city := strings.TrimSpace(a.City)
		if city == "" {
			return next
		}
		next.Location = city

	case AddFavourite:
		city := strings.TrimSpace(a.City)
		if city == "" || slices.Contains(next.FavouriteCities, city) {
			return next
		}
		next.FavouriteCities = append([]string{city}, next.FavouriteCities...)

	case RemoveFavourite:
		city := strings.TrimSpace(a.City)
		next.FavouriteCities = slices.DeleteFunc(next.FavouriteCities, func(c string) bool {
			return c == city
		})

	case ToggleFavourite:
		city := strings.TrimSpace(a.City)
		switch {
		case city == "":
		case slices.Contains(next.FavouriteCities, city):
			next.FavouriteCities = slices.DeleteFunc(next.FavouriteCities, func(c string) bool {
				return c == city
			})
		default:
			next.FavouriteCities = append([]string{city}, next.FavouriteCities...)
		}

	case SetTempUnit:
		if !a.Unit.Valid() {
			return next
		}
		next.TempUnit = a.Unit

	case ToggleTempUnit:
		if next.TempUnit == Fahrenheit {
			next.TempUnit = Celsius
		} else {
			next.TempUnit = Fahrenheit
		}
	}

	return next
}
