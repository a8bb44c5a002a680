package query

import "time"

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a snapshot of one cache entry. Data is kept from the last success
// even when a later attempt failed; HasData tells an empty success apart from no data.
type Result[T any] struct {
	Status    Status
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

func (r Result[T]) IsPending() bool { return r.Status == StatusPending }
func (r Result[T]) IsError() bool   { return r.Status == StatusError }
func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }

type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Fetches int64 `json:"fetches"`
	Entries int   `json:"entries"`
}
