package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"weather-dashboard/pkg/logger"
)

type fetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key    Key
	policy Policy
	fetch  fetchFunc

	status      Status
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	lastAccess  time.Time
	invalidated bool

	// inFlight is set while a request for this entry runs; sweep never drops it.
	inFlight bool
}

// Client caches query results per Key, shares in-flight requests per Key,
// serves stale data while it revalidates and retries transient failures.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	bg      sync.WaitGroup

	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	retryable func(err error) bool
	backoff   Backoff
	l         *logger.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithRetryable sets the predicate deciding which errors are retried.
func WithRetryable(fn func(err error) bool) Option {
	return func(c *Client) { c.retryable = fn }
}

func WithBackoff(b Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		entries:   make(map[string]*entry),
		now:       time.Now,
		sleep:     sleepContext,
		retryable: notCanceled,
		backoff:   DefaultBackoff(),
		l:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached result for key when it is usable and otherwise runs fn,
// blocking until it settles. A stale success is returned at once while a single
// background refresh runs.
func Fetch[T any](ctx context.Context, c *Client, key Key, policy Policy, fn func(ctx context.Context) (T, error)) Result[T] {
	k := key.String()

	c.mu.Lock()
	e := c.touch(key, policy, wrap(fn))
	now := c.now()

	switch {
	case c.fresh(e, now):
		c.hits.Add(1)
		res := resultOf[T](e, now)
		c.mu.Unlock()
		return res
	case e.status == StatusSuccess && e.hasData:
		c.hits.Add(1)
		res := resultOf[T](e, now)
		c.refreshLocked(ctx, k, e)
		c.mu.Unlock()
		return res
	}
	c.misses.Add(1)
	c.mu.Unlock()

	ch := c.group.DoChan(k, c.runner(context.WithoutCancel(ctx), k, e))
	select {
	case <-ch:
	case <-ctx.Done():
		var zero T
		return Result[T]{Status: StatusError, Data: zero, Err: ctx.Err()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return resultOf[T](e, c.now())
}

// Observe never blocks: it returns the current snapshot for key, pending when
// nothing has settled yet, and starts a fetch if the entry needs one.
func Observe[T any](ctx context.Context, c *Client, key Key, policy Policy, fn func(ctx context.Context) (T, error)) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.touch(key, policy, wrap(fn))
	now := c.now()

	if c.fresh(e, now) {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
		c.refreshLocked(ctx, key.String(), e)
	}
	return resultOf[T](e, now)
}

// Invalidate marks every entry whose key starts with prefix as stale.
// It returns the number of entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			n++
		}
	}
	return n
}

// Sweep drops entries idle for longer than their GCTime and not in flight.
func (c *Client) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.inFlight {
			continue
		}
		if now.Sub(e.lastAccess) > e.policy.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// RefetchStale refreshes in the background every stale entry that was used
// within its GCTime. Entries that never go stale are left alone.
func (c *Client) RefetchStale(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.inFlight || e.status == StatusPending {
			continue
		}
		if now.Sub(e.lastAccess) > e.policy.GCTime {
			continue
		}
		if c.fresh(e, now) {
			continue
		}
		if c.refreshLocked(ctx, k, e) {
			n++
		}
	}
	return n
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
		Entries: entries,
	}
}

// Wait blocks until background refreshes started so far have finished.
func (c *Client) Wait() {
	c.bg.Wait()
}

// touch returns the entry for key, creating a pending one. c.mu must be held.
func (c *Client) touch(key Key, policy Policy, fn fetchFunc) *entry {
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: key, status: StatusPending}
		c.entries[k] = e
	}
	e.policy = policy
	e.fetch = fn
	e.lastAccess = c.now()
	return e
}

// fresh reports whether e can be served without a request. c.mu must be held.
func (c *Client) fresh(e *entry, now time.Time) bool {
	if e.invalidated {
		return false
	}
	age := now.Sub(e.updatedAt)
	switch e.status {
	case StatusSuccess:
		return age < e.policy.StaleTime
	case StatusError:
		return age < e.policy.errorTime()
	default:
		return false
	}
}

// refreshLocked starts a background request for e unless one is running.
// c.mu must be held.
func (c *Client) refreshLocked(ctx context.Context, k string, e *entry) bool {
	if e.inFlight {
		return false
	}
	e.inFlight = true

	run := c.runner(context.WithoutCancel(ctx), k, e)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		_, _, _ = c.group.Do(k, run)
	}()
	return true
}

// runner returns the singleflight body for e. It re-checks freshness first so a
// caller that lost the race to a just-finished request does not fetch again.
func (c *Client) runner(ctx context.Context, k string, e *entry) func() (any, error) {
	return func() (any, error) {
		c.mu.Lock()
		if c.fresh(e, c.now()) {
			e.inFlight = false
			data, err := e.data, e.err
			c.mu.Unlock()
			return data, err
		}
		e.inFlight = true
		fetch, policy := e.fetch, e.policy
		c.mu.Unlock()

		fetchID := uuid.NewString()
		data, err := c.attempt(ctx, fetchID, k, policy.Retries, fetch)

		c.mu.Lock()
		defer c.mu.Unlock()

		e.inFlight = false
		e.invalidated = false
		e.updatedAt = c.now()
		if err != nil {
			e.status = StatusError
			e.err = err
			c.l.Warning("query failed", map[string]any{
				"key":      k,
				"fetch_id": fetchID,
				"err":      err,
			})
			return nil, err
		}

		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		e.err = nil
		return data, nil
	}
}

func (c *Client) attempt(ctx context.Context, fetchID, k string, retries int, fetch fetchFunc) (any, error) {
	for attempt := 0; ; attempt++ {
		c.fetches.Add(1)
		c.l.Debug("query fetch", map[string]any{
			"key":      k,
			"fetch_id": fetchID,
			"attempt":  attempt,
		})

		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		if attempt >= retries || !c.retryable(err) {
			return nil, err
		}

		delay := c.backoff.Delay(attempt)
		c.l.Debug("query retry scheduled", map[string]any{
			"key":      k,
			"fetch_id": fetchID,
			"delay":    delay.String(),
			"err":      err,
		})
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func resultOf[T any](e *entry, now time.Time) Result[T] {
	res := Result[T]{
		Status:    e.status,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
	if e.hasData {
		if data, ok := e.data.(T); ok {
			res.Data = data
		}
	}
	if e.status != StatusPending {
		res.Stale = e.invalidated || now.Sub(e.updatedAt) >= e.policy.StaleTime
	}
	return res
}

func wrap[T any](fn func(ctx context.Context) (T, error)) fetchFunc {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

func notCanceled(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
