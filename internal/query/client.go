// Package query caches read requests made against the data access layer.
//
// Identical concurrent requests share one underlying call. Each entry tracks
// its status and keeps its last good data when a refetch fails. Writes
// invalidate entries by key prefix.
//
// The shared call runs under its own context, cancelled once every caller
// waiting on it has gone away. A result produced after that point is dropped
// and never reaches the cache.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dezobq/snapgram/internal/logs"
)

const DefaultSize = 512

type Options struct {
	// Size bounds the number of entries; the least recently used is evicted.
	Size int
	// StaleTime is how long a successful result is served without refetching.
	// Zero means every Fetch refetches, concurrent calls still being shared.
	StaleTime time.Duration
	// RefetchOnInvalidate refetches invalidated entries in the background.
	RefetchOnInvalidate bool
	// Now defaults to time.Now.
	Now func() time.Time
}

type fetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key       Key
	status    Status
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool
	gen       uint64
	fetch     fetchFunc
}

type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	// gen of the entry when the call started.
	gen uint64
}

type Client struct {
	opts Options

	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	flights map[string]*flight
	group   singleflight.Group

	background sync.WaitGroup
}

func New(opts Options) (*Client, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	entries, err := lru.New[string, *entry](opts.Size)
	if err != nil {
		return nil, err
	}
	return &Client{opts: opts, entries: entries, flights: map[string]*flight{}}, nil
}

// Fetch returns the cached value for key when it is still fresh, and otherwise
// runs fn, or joins the call already running for key.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.do(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) }, false)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok && v != nil {
		return zero, errors.New("query: cached value has unexpected type for " + key.String())
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, key Key, fn fetchFunc, force bool) (any, error) {
	k := key.String()

	c.mu.Lock()
	e := c.entry(key)
	e.fetch = fn
	if !force && c.fresh(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	fl := c.flights[k]
	if fl == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: fctx, cancel: cancel, gen: e.gen}
		c.flights[k] = fl
	}
	fl.waiters++
	e.status = StatusLoading
	// DoChan ne bloque pas ; l'appeler sous c.mu garde flights et group alignés.
	ch := c.group.DoChan(k, func() (any, error) {
		return c.run(key, fl, fn)
	})
	c.mu.Unlock()

	select {
	case res := <-ch:
		c.leave(k, fl)
		return res.Val, res.Err
	case <-ctx.Done():
		c.leave(k, fl)
		return nil, ctx.Err()
	}
}

// run executes the shared call for key and records its outcome.
func (c *Client) run(key Key, fl *flight, fn fetchFunc) (any, error) {
	k := key.String()

	v, err := fn(fl.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.detach(k, fl)

	e := c.entry(key)
	if fl.ctx.Err() != nil {
		// Plus personne n'attend ce résultat.
		if e.status == StatusLoading {
			e.status = settled(e)
		}
		logs.LogJSON("DEBUG", "Query result dropped", map[string]interface{}{
			"key": key.String(),
		})
		return nil, context.Canceled
	}

	if err != nil {
		e.status = StatusError
		e.err = err
		return nil, err
	}
	e.status = StatusSuccess
	e.data = v
	e.hasData = true
	e.err = nil
	e.updatedAt = c.opts.Now()
	e.stale = e.gen != fl.gen
	return v, nil
}

func (c *Client) leave(k string, fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	c.detach(k, fl)
}

// detach makes the next caller for k start a new call. c.mu must be held.
func (c *Client) detach(k string, fl *flight) {
	if c.flights[k] == fl {
		delete(c.flights, k)
		c.group.Forget(k)
	}
}

// entry returns the entry for key, creating it when missing. c.mu must be held.
func (c *Client) entry(key Key) *entry {
	k := key.String()
	if e, ok := c.entries.Get(k); ok {
		return e
	}
	e := &entry{key: key}
	c.entries.Add(k, e)
	return e
}

func (c *Client) fresh(e *entry) bool {
	if !e.hasData || e.stale || e.status == StatusError || c.opts.StaleTime <= 0 {
		return false
	}
	return c.opts.Now().Sub(e.updatedAt) < c.opts.StaleTime
}

func settled(e *entry) Status {
	switch {
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	}
	return StatusIdle
}

// State returns a snapshot of the entry for key without touching its recency.
func (c *Client) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key.String())
	if !ok {
		return State{Status: StatusIdle}
	}
	return State{
		Status:    e.status,
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale || !c.fresh(e),
	}
}

// SetData stores v as the fresh value of key.
func (c *Client) SetData(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.data = v
	e.hasData = true
	e.err = nil
	e.status = StatusSuccess
	e.stale = false
	e.updatedAt = c.opts.Now()
}

// Invalidate marks every entry whose key starts with one of prefixes as
// stale and returns how many were marked. With RefetchOnInvalidate, those
// entries are refetched in the background.
func (c *Client) Invalidate(prefixes ...Key) int {
	var refetch []*entry

	c.mu.Lock()
	n := 0
	for _, k := range c.entries.Keys() {
		e, ok := c.entries.Peek(k)
		if !ok || !matches(e.key, prefixes) {
			continue
		}
		e.stale = true
		e.gen++
		n++
		if c.opts.RefetchOnInvalidate && e.fetch != nil {
			e.status = StatusLoading
			refetch = append(refetch, e)
		}
	}
	c.mu.Unlock()

	for _, e := range refetch {
		key, fn := e.key, e.fetch
		c.background.Add(1)
		go func() {
			defer c.background.Done()
			if _, err := c.do(context.Background(), key, fn, true); err != nil {
				logs.LogJSON("WARN", "Background refetch failed", map[string]interface{}{
					"key":   key.String(),
					"error": err.Error(),
				})
			}
		}()
	}
	return n
}

// Wait blocks until background refetches started so far are done.
func (c *Client) Wait() {
	c.background.Wait()
}

// Remove drops every entry whose key starts with one of prefixes.
func (c *Client) Remove(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.entries.Keys() {
		if e, ok := c.entries.Peek(k); ok && matches(e.key, prefixes) {
			c.entries.Remove(k)
		}
	}
}

func (c *Client) Len() int {
	return c.entries.Len()
}

func matches(key Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if key.HasPrefix(p) {
			return true
		}
	}
	return false
}
