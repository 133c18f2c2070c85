// Package services holds the business logic behind the HTTP controllers.
package services

import (
	"sync"
	"time"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/websocket"
	"github.com/patrickmn/go-cache"
)

// EventPublisher pushes change notifications to feed subscribers
type EventPublisher interface {
	Publish(event websocket.Event)
}

// ActivityRecorder counts domain activity for metrics
type ActivityRecorder interface {
	RecordNoteCreated(kind string)
	RecordNoteDeleted()
	RecordRatingSaved(action string)
	RecordDownload()
	RecordCatalogCache(hit bool)
}

type nopPublisher struct{}

func (nopPublisher) Publish(websocket.Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordNoteCreated(string) {}
func (nopRecorder) RecordNoteDeleted()       {}
func (nopRecorder) RecordRatingSaved(string) {}
func (nopRecorder) RecordDownload()          {}
func (nopRecorder) RecordCatalogCache(bool)  {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func recorderOrNop(r ActivityRecorder) ActivityRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

const catalogCacheKey = "catalog:notes"

// CatalogCache keeps the unfiltered note list with averages between changes.
// Cached notes are shared and must be treated as read-only.
type CatalogCache struct {
	cache *cache.Cache
	// generation guards against storing a snapshot loaded before an invalidation
	mu         sync.Mutex
	generation uint64
}

// NewCatalogCache creates a cache whose entries expire after ttl
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{cache: cache.New(ttl, 2*ttl)}
}

// Notes returns the cached list and the generation it belongs to
func (c *CatalogCache) Notes() ([]*models.Note, uint64, bool) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	if cached, found := c.cache.Get(catalogCacheKey); found {
		return cached.([]*models.Note), gen, true
	}
	return nil, gen, false
}

// SetNotes stores a list loaded during generation gen; stale loads are discarded
func (c *CatalogCache) SetNotes(notes []*models.Note, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.cache.Set(catalogCacheKey, notes, cache.DefaultExpiration)
}

// Invalidate drops the cached list
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Flush()
}
