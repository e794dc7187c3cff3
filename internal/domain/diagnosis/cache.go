// Package diagnosis provides the session-scoped diagnosis reference list.
// The list is fetched once, read-only afterwards, and shared by the entry
// form (code picker) and the presenter (code to name lookup).
package diagnosis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/cache"
)

const storeKey = "diagnoses:all"

// Lookup resolves a code to its display name without blocking.
type Lookup interface {
	Name(code string) (string, bool)
}

// Cache is a read-through cache over a DiagnosisService. An optional shared
// Store lets several processes reuse one fetched copy.
type Cache struct {
	svc    patient.DiagnosisService
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	list   []patient.Diagnosis
	byCode map[string]patient.Diagnosis
	loaded bool
}

type Option func(*Cache)

// WithStore adds a shared backend consulted before the service.
func WithStore(store cache.Store, ttl time.Duration) Option {
	return func(c *Cache) {
		c.store = store
		c.ttl = ttl
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func NewCache(svc patient.DiagnosisService, opts ...Option) *Cache {
	c := &Cache{svc: svc, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// All returns the diagnosis list, fetching it on first use. Concurrent
// callers share one fetch. A failed fetch is not cached.
func (c *Cache) All(ctx context.Context) ([]patient.Diagnosis, error) {
	if list, ok := c.snapshot(); ok {
		return list, nil
	}

	v, err, _ := c.group.Do(storeKey, func() (interface{}, error) {
		if list, ok := c.snapshot(); ok {
			return list, nil
		}
		list, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]patient.Diagnosis), nil
}

// Loaded reports whether the list has been resolved.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Name returns the display name for code. It reports false while the list
// is unresolved or when the code is unknown.
func (c *Cache) Name(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byCode[code]
	return d.Name, ok
}

// Get returns the full diagnosis for code.
func (c *Cache) Get(code string) (patient.Diagnosis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byCode[code]
	return d, ok
}

func (c *Cache) snapshot() ([]patient.Diagnosis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list, c.loaded
}

func (c *Cache) set(list []patient.Diagnosis) {
	byCode := make(map[string]patient.Diagnosis, len(list))
	for _, d := range list {
		byCode[d.Code] = d
	}
	c.mu.Lock()
	c.list = list
	c.byCode = byCode
	c.loaded = true
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context) ([]patient.Diagnosis, error) {
	if c.store != nil {
		data, ok, err := c.store.Get(ctx, storeKey)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("diagnosis store read failed, falling back to service")
		case ok:
			var list []patient.Diagnosis
			if err := json.Unmarshal(data, &list); err == nil {
				c.logger.Debug().Int("count", len(list)).Msg("diagnoses loaded from shared store")
				return list, nil
			}
			c.logger.Warn().Msg("discarding undecodable diagnosis store value")
		}
	}

	list, err := c.svc.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch diagnoses: %w", err)
	}
	if list == nil {
		list = []patient.Diagnosis{}
	}
	c.logger.Info().Int("count", len(list)).Msg("diagnoses fetched")

	if c.store != nil {
		if data, err := json.Marshal(list); err == nil {
			if err := c.store.Set(ctx, storeKey, data, c.ttl); err != nil {
				c.logger.Warn().Err(err).Msg("diagnosis store write failed")
			}
		}
	}
	return list, nil
}
