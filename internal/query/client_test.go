package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(clock *fakeClock, sleeper *sleepRecorder) *Client {
	return New(
		WithClock(clock.Now),
		WithSleep(sleeper.Sleep),
		WithRetryable(func(err error) bool { return errors.Is(err, errTransient) }),
	)
}

var (
	livePolicy    = Policy{StaleTime: time.Minute, GCTime: 5 * time.Minute, Retries: 2}
	historyPolicy = Policy{StaleTime: Forever, ErrorTime: time.Minute, GCTime: 24 * time.Hour, Retries: 1}
)

func TestFetch_ConcurrentCallersShareOneRequest(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})
	key := NewKey("current", "Mumbai, Maharashtra, India", false)

	var calls atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return "31°C", nil
	}

	results := make([]Result[string], 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), client, key, livePolicy, fetch)
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "31°C", res.Data)
	}
}

func TestFetch_DifferentParamsAreDifferentEntries(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	a := Fetch(context.Background(), client, NewKey("current", "Delhi", true), livePolicy, fetch)
	b := Fetch(context.Background(), client, NewKey("current", "Delhi", false), livePolicy, fetch)

	assert.Equal(t, 1, a.Data)
	assert.Equal(t, 2, b.Data)
	assert.Equal(t, 2, client.Stats().Entries)
}

func TestFetch_StaleWhileRevalidate(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})
	key := NewKey("forecast", "Delhi", 7, true)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first := Fetch(context.Background(), client, key, livePolicy, fetch)
	require.Equal(t, 1, first.Data)
	assert.False(t, first.Stale)

	clock.Advance(30 * time.Second)
	cached := Fetch(context.Background(), client, key, livePolicy, fetch)
	assert.Equal(t, 1, cached.Data)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(31 * time.Second)
	stale := Fetch(context.Background(), client, key, livePolicy, fetch)
	assert.Equal(t, StatusSuccess, stale.Status)
	assert.True(t, stale.Stale)
	assert.Equal(t, 1, stale.Data)

	client.Wait()
	assert.Equal(t, int32(2), calls.Load())

	refreshed := Fetch(context.Background(), client, key, livePolicy, fetch)
	assert.Equal(t, 2, refreshed.Data)
	assert.False(t, refreshed.Stale)
}

func TestFetch_HistoryNeverStale(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})
	key := NewKey("history", "Mumbai", "2026-10-10")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "28°C", nil
	}

	Fetch(context.Background(), client, key, historyPolicy, fetch)
	clock.Advance(23 * time.Hour)
	res := Fetch(context.Background(), client, key, historyPolicy, fetch)

	assert.Equal(t, "28°C", res.Data)
	assert.False(t, res.Stale)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	sleeper := &sleepRecorder{}
	client := newTestClient(newFakeClock(), sleeper)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", errTransient
	}

	res := Fetch(context.Background(), client, NewKey("current", "Delhi"), livePolicy, fetch)

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, errTransient)
	assert.False(t, res.HasData)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestFetch_RecoversAfterRetry(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errTransient
		}
		return "ok", nil
	}

	res := Fetch(context.Background(), client, NewKey("search", "de"), livePolicy, fetch)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "ok", res.Data)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_NonRetryableFailsImmediately(t *testing.T) {
	sleeper := &sleepRecorder{}
	client := newTestClient(newFakeClock(), sleeper)

	var calls atomic.Int32
	notFound := errors.New("no matching location found")
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", notFound
	}

	res := Fetch(context.Background(), client, NewKey("current", "Nowhere"), livePolicy, fetch)

	assert.ErrorIs(t, res.Err, notFound)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.delays)
}

func TestFetch_ErrorCachedWithinWindow(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})
	key := NewKey("current", "Nowhere")
	policy := Policy{StaleTime: time.Minute, GCTime: 5 * time.Minute}

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("bad request")
	}

	Fetch(context.Background(), client, key, policy, fetch)
	clock.Advance(10 * time.Second)
	res := Fetch(context.Background(), client, key, policy, fetch)

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Minute)
	Fetch(context.Background(), client, key, policy, fetch)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_HistoryErrorExpires(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})
	key := NewKey("history", "Nowhere", "2026-10-10")
	policy := historyPolicy
	policy.Retries = 0

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("bad request")
	}

	Fetch(context.Background(), client, key, policy, fetch)
	clock.Advance(2 * time.Minute)
	Fetch(context.Background(), client, key, policy, fetch)

	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_EmptySuccessIsNotPending(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})

	res := Fetch(context.Background(), client, NewKey("search", "zz"), livePolicy, func(ctx context.Context) ([]string, error) {
		return []string{}, nil
	})

	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.HasData)
	assert.Empty(t, res.Data)
}

func TestFetch_CanceledCallerStillPopulatesCache(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})
	key := NewKey("current", "Jaipur")

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		assert.NoError(t, ctx.Err())
		return "sunny", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result[string])
	go func() {
		done <- Fetch(ctx, client, key, livePolicy, fetch)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	res := <-done
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return Observe(context.Background(), client, key, livePolicy, fetch).IsSuccess()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestObserve_PendingThenSuccess(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})
	key := NewKey("current", "Chennai")

	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		<-release
		return "rain", nil
	}

	first := Observe(context.Background(), client, key, livePolicy, fetch)
	assert.Equal(t, StatusPending, first.Status)
	assert.False(t, first.HasData)

	second := Observe(context.Background(), client, key, livePolicy, fetch)
	assert.True(t, second.IsPending())

	close(release)
	client.Wait()

	res := Observe(context.Background(), client, key, livePolicy, fetch)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "rain", res.Data)
}

func TestInvalidate(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	Fetch(context.Background(), client, NewKey("current", "Delhi", false), livePolicy, fetch)
	Fetch(context.Background(), client, NewKey("current", "Mumbai", false), livePolicy, fetch)
	Fetch(context.Background(), client, NewKey("search", "de"), livePolicy, fetch)

	assert.Equal(t, 1, client.Invalidate(NewKey("current", "Delhi")))
	assert.Equal(t, 2, client.Invalidate(NewKey("current")))

	res := Fetch(context.Background(), client, NewKey("current", "Delhi", false), livePolicy, fetch)
	assert.True(t, res.Stale)
	client.Wait()

	res = Fetch(context.Background(), client, NewKey("current", "Delhi", false), livePolicy, fetch)
	assert.False(t, res.Stale)
	assert.Equal(t, 4, res.Data)
}

func TestSweep_EvictsIdleEntries(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})

	fetch := func(ctx context.Context) (string, error) { return "x", nil }

	Fetch(context.Background(), client, NewKey("current", "Delhi"), livePolicy, fetch)
	Fetch(context.Background(), client, NewKey("history", "Delhi", "2026-10-10"), historyPolicy, fetch)

	clock.Advance(4 * time.Minute)
	assert.Equal(t, 0, client.Sweep())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, client.Sweep())
	assert.Equal(t, 1, client.Stats().Entries)

	clock.Advance(24 * time.Hour)
	assert.Equal(t, 1, client.Sweep())
	assert.Equal(t, 0, client.Stats().Entries)
}

func TestSweep_KeepsInFlightEntries(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})
	key := NewKey("current", "Kolkata")

	release := make(chan struct{})
	Observe(context.Background(), client, key, livePolicy, func(ctx context.Context) (string, error) {
		<-release
		return "fog", nil
	})

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, client.Sweep())

	close(release)
	client.Wait()
}

func TestRefetchStale(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(clock, &sleepRecorder{})

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	Fetch(context.Background(), client, NewKey("current", "Delhi"), livePolicy, fetch)
	Fetch(context.Background(), client, NewKey("history", "Delhi", "2026-10-10"), historyPolicy, fetch)

	assert.Equal(t, 0, client.RefetchStale(context.Background()))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, client.RefetchStale(context.Background()))
	client.Wait()
	assert.Equal(t, int32(3), calls.Load())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, client.RefetchStale(context.Background()))
}

func TestStats(t *testing.T) {
	client := newTestClient(newFakeClock(), &sleepRecorder{})
	fetch := func(ctx context.Context) (string, error) { return "x", nil }

	Fetch(context.Background(), client, NewKey("current", "Delhi"), livePolicy, fetch)
	Fetch(context.Background(), client, NewKey("current", "Delhi"), livePolicy, fetch)

	stats := client.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, 1, stats.Entries)
}

func TestBackoff_Delay(t *testing.T) {
	b := DefaultBackoff()

	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 16*time.Second, b.Delay(4))
	assert.Equal(t, 30*time.Second, b.Delay(5))
	assert.Equal(t, 30*time.Second, b.Delay(100))
	assert.Equal(t, time.Duration(0), Backoff{}.Delay(3))
}

func TestKey(t *testing.T) {
	k := NewKey("forecast", "Delhi", 7, true)

	assert.Equal(t, `forecast["Delhi",7,true]`, k.String())
	assert.True(t, k.HasPrefix(NewKey("forecast")))
	assert.True(t, k.HasPrefix(NewKey("forecast", "Delhi")))
	assert.False(t, k.HasPrefix(NewKey("forecast", "Mumbai")))
	assert.False(t, k.HasPrefix(NewKey("current", "Delhi")))
	assert.NotEqual(t, NewKey("current", "Delhi", true).String(), NewKey("current", "Delhi", false).String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
}
