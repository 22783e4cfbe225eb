// Package query is a declarative layer over the API client: named endpoints,
// query results cached under tags, and mutations that mark those tags stale.
//
// Invalidation is driven purely by tag equality. There is no TTL, no size
// bound and no request deduplication.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/metrics"
)

// Doer performs a request and returns an envelope or nil on failure.
type Doer interface {
	Do(ctx context.Context, req client.Request) *client.Envelope
}

type entry struct {
	env   *client.Envelope
	tags  []Tag
	stale bool
}

type subscriber struct {
	id int
	fn func(Tag)
}

// Cache holds the registered endpoints and cached query results.
type Cache struct {
	doer Doer
	log  *zap.Logger

	mu        sync.Mutex
	endpoints map[string]Endpoint
	entries   map[string]*entry
	// gen increases on every invalidation; tagGen records the last one per tag.
	gen    uint64
	tagGen map[Tag]uint64
	// epoch increases on every Reset; results fetched across one are not stored.
	epoch  uint64
	subs   map[Tag][]subscriber
	nextID int
}

// New returns an empty Cache issuing requests through doer.
func New(doer Doer, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		doer:      doer,
		log:       log,
		endpoints: make(map[string]Endpoint),
		entries:   make(map[string]*entry),
		tagGen:    make(map[Tag]uint64),
		subs:      make(map[Tag][]subscriber),
	}
}

// Register adds endpoint definitions. Names must be unique.
func (c *Cache) Register(eps ...Endpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ep := range eps {
		if err := ep.validate(); err != nil {
			return err
		}
		if _, dup := c.endpoints[ep.Name]; dup {
			return fmt.Errorf("endpoint %s registered twice", ep.Name)
		}
		if ep.Method == "" {
			ep.Method = http.MethodPost
		}
		c.endpoints[ep.Name] = ep
	}
	return nil
}

// Endpoint returns the definition registered under name.
func (c *Cache) Endpoint(name string) (Endpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep, ok := c.endpoints[name]
	return ep, ok
}

func (c *Cache) prepare(name string, kind Kind, params Params, body any) (Endpoint, client.Request, string, error) {
	ep, ok := c.Endpoint(name)
	if !ok {
		return Endpoint{}, client.Request{}, "", fmt.Errorf("unknown endpoint %s", name)
	}
	if ep.Kind != kind {
		return Endpoint{}, client.Request{}, "", fmt.Errorf("endpoint %s is a %s", name, ep.Kind)
	}
	path, err := Expand(ep.Path, params)
	if err != nil {
		return Endpoint{}, client.Request{}, "", err
	}
	key := name + "|" + path
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Endpoint{}, client.Request{}, "", fmt.Errorf("cache key for %s: %w", name, err)
		}
		key += "|" + string(b)
	}
	req := client.Request{Method: ep.Method, Path: path, Body: body, RequiresAuth: ep.Auth}
	return ep, req, key, nil
}

func cancelled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// settle runs the endpoint hooks for a finished request. It reports false when
// the request was abandoned by its caller, in which case no hook runs.
func settle(ctx context.Context, ep Endpoint, env *client.Envelope) bool {
	if env == nil {
		if cancelled(ctx) {
			return false
		}
		if ep.OnFailure != nil {
			ep.OnFailure()
		}
		return true
	}
	if ep.OnSuccess != nil {
		ep.OnSuccess(env)
	}
	return true
}

// Query returns the cached result for the endpoint and arguments when it is
// fresh. Otherwise it fetches, caches the result under the endpoint's tags
// and returns it. A failed refetch returns nil and leaves any stale entry in
// place for Peek.
func (c *Cache) Query(ctx context.Context, name string, params Params, body any) *client.Envelope {
	ep, req, key, err := c.prepare(name, KindQuery, params, body)
	if err != nil {
		c.log.Error("query not issued", zap.String("endpoint", name), zap.Error(err))
		return nil
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		c.mu.Unlock()
		metrics.CacheEvent("hit")
		return e.env
	} else if ok {
		metrics.CacheEvent("stale")
	} else {
		metrics.CacheEvent("miss")
	}
	startGen, startEpoch := c.gen, c.epoch
	c.mu.Unlock()

	env := c.doer.Do(ctx, req)
	if !settle(ctx, ep, env) || env == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != startEpoch {
		c.log.Debug("query result dropped after reset", zap.String("endpoint", name))
		return env
	}
	stale := false
	for _, t := range ep.Provides {
		if c.tagGen[t] > startGen {
			stale = true
			break
		}
	}
	c.entries[key] = &entry{env: env, tags: ep.Provides, stale: stale}
	return env
}

// Peek returns the cached result without fetching. stale reports whether it
// has been invalidated since it was fetched.
func (c *Cache) Peek(name string, params Params, body any) (env *client.Envelope, stale, ok bool) {
	_, _, key, err := c.prepare(name, KindQuery, params, body)
	if err != nil {
		return nil, false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.env, e.stale, true
}

// Mutate performs a mutation. Only a successful mutation invalidates its tags.
func (c *Cache) Mutate(ctx context.Context, name string, params Params, body any) *client.Envelope {
	ep, req, _, err := c.prepare(name, KindMutation, params, body)
	if err != nil {
		c.log.Error("mutation not issued", zap.String("endpoint", name), zap.Error(err))
		return nil
	}

	env := c.doer.Do(ctx, req)
	if env != nil {
		c.Invalidate(ep.Invalidates...)
	}
	settle(ctx, ep, env)
	return env
}

// Invalidate marks every cached entry carrying one of tags stale and then
// calls the subscribers of each tag.
func (c *Cache) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	c.mu.Lock()
	c.gen++
	want := make(map[Tag]bool, len(tags))
	for _, t := range tags {
		want[t] = true
		c.tagGen[t] = c.gen
	}
	for _, e := range c.entries {
		for _, t := range e.tags {
			if want[t] {
				e.stale = true
				break
			}
		}
	}
	type call struct {
		tag Tag
		fn  func(Tag)
	}
	var calls []call
	for _, t := range tags {
		for _, s := range c.subs[t] {
			calls = append(calls, call{tag: t, fn: s.fn})
		}
	}
	c.mu.Unlock()

	metrics.CacheEvent("invalidate")
	c.log.Debug("tags invalidated", zap.Any("tags", tags))
	for _, cl := range calls {
		cl.fn(cl.tag)
	}
}

// Subscribe calls fn after every invalidation of tag. The returned function
// removes the subscription.
func (c *Cache) Subscribe(tag Tag, fn func(Tag)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs[tag] = append(c.subs[tag], subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[tag]
		for i, s := range subs {
			if s.id == id {
				c.subs[tag] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Reset drops every cached entry, e.g. after logout. Queries in flight at
// the time still return their result but do not cache it.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]*entry)
}
