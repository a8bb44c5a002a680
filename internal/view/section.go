package view

import "weather-dashboard/internal/query"

// SectionState is what a panel shows: a loading placeholder, an error notice,
// its data, or an explicit "nothing here" notice.
type SectionState string

const (
	StateIdle    SectionState = "idle"
	StatePending SectionState = "pending"
	StateError   SectionState = "error"
	StateReady   SectionState = "ready"
	StateEmpty   SectionState = "empty"
)

// sectionState maps a query result onto a panel state. Data from an earlier
// success is still shown when a refresh failed.
func sectionState[T any](r query.Result[T], empty func(T) bool) SectionState {
	switch {
	case r.HasData && empty != nil && empty(r.Data):
		return StateEmpty
	case r.HasData:
		return StateReady
	case r.Status == query.StatusError:
		return StateError
	default:
		return StatePending
	}
}
