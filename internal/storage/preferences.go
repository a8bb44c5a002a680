package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"weather-dashboard/internal/state"
	"weather-dashboard/pkg/logger"
)

const (
	IdentityKey    = "identity"
	LocationKey    = "location"
	PreferencesKey = "preferences"
)

type IdentityRecord struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Profile string `json:"profile"`
}

type LocationRecord struct {
	City string `json:"city"`
}

type PreferencesRecord struct {
	FavouriteCities []string `json:"favouriteCities"`
	TempUnit        string   `json:"tempUnit"`
}

// PreferenceStore maps UserPreferences onto the identity, location and
// preferences records.
type PreferenceStore struct {
	kv KV
	l  *logger.Logger
}

func NewPreferenceStore(kv KV, l *logger.Logger) *PreferenceStore {
	if l == nil {
		l = logger.NewNop()
	}
	return &PreferenceStore{kv: kv, l: l}
}

// Load merges the records over the defaults. Missing or unreadable records
// leave their fields at the default; only backend failures are returned.
func (s *PreferenceStore) Load(ctx context.Context) (state.UserPreferences, error) {
	prefs := state.Default()

	var identity IdentityRecord
	found, err := s.read(ctx, IdentityKey, &identity)
	if err != nil {
		return prefs, err
	}
	if found {
		prefs.Name = identity.Name
		prefs.Email = identity.Email
		prefs.ProfileImageURL = identity.Profile
	}

	var location LocationRecord
	found, err = s.read(ctx, LocationKey, &location)
	if err != nil {
		return prefs, err
	}
	if found {
		prefs.Location = strings.TrimSpace(location.City)
	}

	var record PreferencesRecord
	found, err = s.read(ctx, PreferencesKey, &record)
	if err != nil {
		return prefs, err
	}
	if found {
		prefs.FavouriteCities = uniqueCities(record.FavouriteCities)
		if unit, err := state.ParseTempUnit(record.TempUnit); err == nil {
			prefs.TempUnit = unit
		}
	}

	return prefs, nil
}

// SaveIdentity writes the identity record. Signing out removes it.
func (s *PreferenceStore) SaveIdentity(ctx context.Context, p state.UserPreferences) error {
	if !p.IsLoggedIn() {
		return s.kv.Delete(ctx, IdentityKey)
	}
	return s.write(ctx, IdentityKey, IdentityRecord{
		Name:    p.Name,
		Email:   p.Email,
		Profile: p.ProfileImageURL,
	})
}

func (s *PreferenceStore) SaveLocation(ctx context.Context, p state.UserPreferences) error {
	if p.Location == "" {
		return s.kv.Delete(ctx, LocationKey)
	}
	return s.write(ctx, LocationKey, LocationRecord{City: p.Location})
}

func (s *PreferenceStore) SavePreferences(ctx context.Context, p state.UserPreferences) error {
	record := PreferencesRecord{
		FavouriteCities: p.FavouriteCities,
		TempUnit:        string(p.TempUnit),
	}
	if record.FavouriteCities == nil {
		record.FavouriteCities = []string{}
	}
	return s.write(ctx, PreferencesKey, record)
}

func (s *PreferenceStore) read(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s record: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.l.Warning("ignoring unreadable record", map[string]any{
			"key": key,
			"err": err,
		})
		return false, nil
	}
	return true, nil
}

func (s *PreferenceStore) write(ctx context.Context, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s record: %w", key, err)
	}
	return nil
}

func uniqueCities(cities []string) []string {
	out := make([]string, 0, len(cities))
	seen := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
