package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu          sync.Mutex
	identity    []UserPreferences
	location    []UserPreferences
	preferences []UserPreferences
	err         error
}

func (p *recordingPersister) SaveIdentity(_ context.Context, s UserPreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = append(p.identity, s)
	return p.err
}

func (p *recordingPersister) SaveLocation(_ context.Context, s UserPreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = append(p.location, s)
	return p.err
}

func (p *recordingPersister) SavePreferences(_ context.Context, s UserPreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preferences = append(p.preferences, s)
	return p.err
}

func TestStore_DispatchPersistsAffectedRecord(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(Default(), p, nil)
	ctx := context.Background()

	store.Dispatch(ctx, AddFavourite{City: "Delhi, Delhi, India"})
	store.Dispatch(ctx, SetTempUnit{Unit: Fahrenheit})
	store.Dispatch(ctx, SignIn{Name: "Asha", Email: "asha@example.com"})
	store.Dispatch(ctx, SetLocation{City: "Mumbai, Maharashtra, India"})

	require.Len(t, p.preferences, 2)
	assert.Equal(t, Fahrenheit, p.preferences[1].TempUnit)
	assert.Equal(t, []string{"Delhi, Delhi, India"}, p.preferences[1].FavouriteCities)

	require.Len(t, p.identity, 1)
	assert.Equal(t, "Asha", p.identity[0].Name)

	require.Len(t, p.location, 1)
	assert.Equal(t, "Mumbai, Maharashtra, India", p.location[0].Location)
}

func TestStore_NoOpActionDoesNotWrite(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(Default(), p, nil)
	ctx := context.Background()

	store.Dispatch(ctx, AddFavourite{City: ""})
	store.Dispatch(ctx, SetTempUnit{Unit: Celsius})
	store.Dispatch(ctx, SetLocation{City: " "})
	store.Dispatch(ctx, unknownAction{})

	assert.Empty(t, p.identity)
	assert.Empty(t, p.location)
	assert.Empty(t, p.preferences)
}

func TestStore_SignOutKeepsPreferences(t *testing.T) {
	p := &recordingPersister{}
	store := NewStore(Default(), p, nil)
	ctx := context.Background()

	store.Dispatch(ctx, AddFavourite{City: "Delhi, Delhi, India"})
	store.Dispatch(ctx, SignIn{Name: "Asha"})
	got := store.Dispatch(ctx, SignOut{})

	assert.False(t, got.IsLoggedIn())
	assert.Equal(t, []string{"Delhi, Delhi, India"}, got.FavouriteCities)
	require.Len(t, p.identity, 2)
	assert.Empty(t, p.identity[1].Name)
	assert.Len(t, p.preferences, 1)
	assert.Empty(t, p.location)
}

func TestStore_ConcurrentTogglesAlternate(t *testing.T) {
	store := NewStore(Default(), nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(ctx, ToggleFavourite{City: "Delhi, Delhi, India"})
		}()
	}
	wg.Wait()

	// an even number of toggles lands back where it started
	assert.Empty(t, store.State().FavouriteCities)
}

func TestStore_WriteFailureKeepsState(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	store := NewStore(Default(), p, nil)

	got := store.Dispatch(context.Background(), AddFavourite{City: "Delhi, Delhi, India"})

	assert.Equal(t, []string{"Delhi, Delhi, India"}, got.FavouriteCities)
	assert.Equal(t, []string{"Delhi, Delhi, India"}, store.State().FavouriteCities)
}

func TestStore_StateIsACopy(t *testing.T) {
	store := NewStore(Default(), nil, nil)
	store.Dispatch(context.Background(), AddFavourite{City: "Delhi, Delhi, India"})

	s := store.State()
	s.FavouriteCities[0] = "changed"

	assert.Equal(t, "Delhi, Delhi, India", store.State().FavouriteCities[0])
}

func TestStore_InvalidInitialUnitDefaultsToCelsius(t *testing.T) {
	store := NewStore(UserPreferences{TempUnit: "K"}, nil, nil)
	assert.Equal(t, Celsius, store.State().TempUnit)
}

func TestStore_ConcurrentDispatchKeepsFavouritesUnique(t *testing.T) {
	store := NewStore(Default(), &recordingPersister{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(ctx, AddFavourite{City: "Delhi, Delhi, India"})
			store.Dispatch(ctx, AddFavourite{City: "Mumbai, Maharashtra, India"})
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"Delhi, Delhi, India", "Mumbai, Maharashtra, India"}, store.State().FavouriteCities)
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore(Default(), nil, nil)

	var seen []TempUnit
	unsubscribe := store.Subscribe(func(p UserPreferences) {
		seen = append(seen, p.TempUnit)
	})

	store.Dispatch(context.Background(), ToggleTempUnit{})
	unsubscribe()
	store.Dispatch(context.Background(), ToggleTempUnit{})

	assert.Equal(t, []TempUnit{Fahrenheit}, seen)
}
