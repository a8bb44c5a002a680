package view

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/state"
)

const SearchDelay = 250 * time.Millisecond

type SearchHit struct {
	Canonical   string `json:"canonical"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	IsFavourite bool   `json:"isFavourite"`
}

type SearchView struct {
	Query   string       `json:"query"`
	State   SectionState `json:"state"`
	Error   string       `json:"error,omitempty"`
	Notice  string       `json:"notice,omitempty"`
	Results []SearchHit  `json:"results"`
}

// BuildSearch runs a location search. Queries shorter than the minimum are
// answered with an idle view and never reach the service.
func BuildSearch(ctx context.Context, svc *weather.WeatherService, q string, p state.UserPreferences) SearchView {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < weather.MinSearchLength {
		return SearchView{
			Query:   q,
			State:   StateIdle,
			Notice:  fmt.Sprintf("type at least %d characters to search", weather.MinSearchLength),
			Results: []SearchHit{},
		}
	}

	res := svc.SearchLocations(ctx, q)
	v := SearchView{
		Query:   q,
		State:   sectionState(res, func(hits []models.SearchLocation) bool { return len(hits) == 0 }),
		Error:   errorText(res.Err),
		Results: make([]SearchHit, 0, len(res.Data)),
	}
	for _, loc := range res.Data {
		canonical := loc.Canonical()
		v.Results = append(v.Results, SearchHit{
			Canonical:   canonical,
			Name:        loc.Name,
			Region:      loc.Region,
			Country:     loc.Country,
			IsFavourite: p.IsFavourite(canonical),
		})
	}
	if v.State == StateEmpty {
		v.Notice = fmt.Sprintf("no results for %q", q)
	}
	return v
}

// Debouncer coalesces rapid input: fn runs with the latest input once no new
// input arrived for the delay. Inputs shorter than minLen cancel the pending
// call and are dropped.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	minLen int
	fn     func(query string)
	timer  *time.Timer
}

func NewDebouncer(delay time.Duration, minLen int, fn func(query string)) *Debouncer {
	return &Debouncer{delay: delay, minLen: minLen, fn: fn}
}

func (d *Debouncer) Input(q string) {
	q = strings.TrimSpace(q)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if utf8.RuneCountInString(q) < d.minLen {
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(q)
	})
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
