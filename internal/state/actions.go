package state

// Action is a state transition request. Reduce ignores types it does not know.
type Action interface {
	Type() string
}

type SignIn struct {
	Name            string
	Email           string
	ProfileImageURL string
}

type SignOut struct{}

type SetLocation struct {
	City string
}

type AddFavourite struct {
	City string
}

type RemoveFavourite struct {
	City string
}

type SetTempUnit struct {
	Unit TempUnit
}

type ToggleTempUnit struct{}

// ToggleFavourite adds City when absent and removes it otherwise.
type ToggleFavourite struct {
	City string
}

func (SignIn) Type() string          { return "signIn" }
func (SignOut) Type() string         { return "signOut" }
func (SetLocation) Type() string     { return "setLocation" }
func (AddFavourite) Type() string    { return "addFavourite" }
func (RemoveFavourite) Type() string { return "removeFavourite" }
func (SetTempUnit) Type() string     { return "setTempUnit" }
func (ToggleTempUnit) Type() string  { return "toggleTempUnit" }
func (ToggleFavourite) Type() string { return "toggleFavourite" }
