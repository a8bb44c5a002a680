package query

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"weather-dashboard/pkg/logger"
)

// Janitor periodically evicts idle entries and refreshes stale active ones.
type Janitor struct {
	scheduler *gocron.Scheduler
	client    *Client
	l         *logger.Logger
}

// NewJanitor schedules the sweep and refetch jobs. A zero interval disables that job.
func NewJanitor(client *Client, sweepEvery, refetchEvery time.Duration, l *logger.Logger) (*Janitor, error) {
	j := &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		client:    client,
		l:         l,
	}
	j.scheduler.SingletonModeAll()
	j.scheduler.WaitForScheduleAll()

	if sweepEvery > 0 {
		if _, err := j.scheduler.Every(sweepEvery).Do(j.sweep); err != nil {
			return nil, fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
	}
	if refetchEvery > 0 {
		if _, err := j.scheduler.Every(refetchEvery).Do(j.refetch); err != nil {
			return nil, fmt.Errorf("failed to schedule cache refetch: %w", err)
		}
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.scheduler.StartAsync()
}

func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

func (j *Janitor) sweep() {
	if n := j.client.Sweep(); n > 0 {
		j.l.Debug("evicted idle queries", map[string]any{"count": n})
	}
}

func (j *Janitor) refetch() {
	if n := j.client.RefetchStale(context.Background()); n > 0 {
		j.l.Debug("refetching stale queries", map[string]any{"count": n})
	}
}
