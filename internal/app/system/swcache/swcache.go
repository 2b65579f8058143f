// internal/app/system/swcache/swcache.go

// Package swcache implements the asset caching policy shared with the
// service worker: a versioned pre-populated static cache, an opportunistic
// runtime cache, and cache-first serving with a network fallback.
//
// The policy runs against the Storage/Cache capability interfaces so it can
// back the /cdn proxy with an in-memory store in production and be tested
// without a network.
package swcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Entry is one cached response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Cache stores responses keyed by request URL.
type Cache interface {
	Lookup(key string) (Entry, bool)
	Store(key string, e Entry)
}

// Storage manages named caches, mirroring the browser's CacheStorage.
// EvictAllExcept deletes every cache whose name the predicate rejects.
type Storage interface {
	Open(name string) Cache
	EvictAllExcept(keep func(name string) bool)
}

// Fetcher retrieves a resource from the network.
type Fetcher func(ctx context.Context, url string) (Entry, error)

// Policy is the caching policy: Install pre-populates the static cache,
// Activate garbage-collects stale versions, Serve answers lookups
// cache-first.
type Policy struct {
	StaticCache  string // versioned name, e.g. "koasa-v1.0.0"
	RuntimeCache string
	RootPage     string // offline substitute for navigational documents
	Precache     []string
	Storage      Storage
	Fetch        Fetcher
	Log          *zap.Logger
}

// Install fetches every precache manifest entry and commits them to the
// static cache. Population is all-or-nothing: if any entry fails to fetch,
// nothing is committed and the previously installed caches stay as they
// were.
func (p *Policy) Install(ctx context.Context) error {
	staged := make(map[string]Entry, len(p.Precache))
	for _, url := range p.Precache {
		e, err := p.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("precache %s: %w", url, err)
		}
		if e.Status != http.StatusOK {
			return fmt.Errorf("precache %s: status %d", url, e.Status)
		}
		staged[url] = e
	}

	c := p.Storage.Open(p.StaticCache)
	for url, e := range staged {
		c.Store(url, e)
	}
	if p.Log != nil {
		p.Log.Info("static cache populated",
			zap.String("cache", p.StaticCache),
			zap.Int("entries", len(staged)))
	}
	return nil
}

// Activate deletes every cache that is neither the current static cache nor
// the runtime cache.
func (p *Policy) Activate() {
	p.Storage.EvictAllExcept(func(name string) bool {
		return name == p.StaticCache || name == p.RuntimeCache
	})
}

// Serve answers one eligible request. Cached copies win; on a miss the
// resource is fetched and, when the response is a plain 200, a copy is
// stored in the runtime cache. When the network fails and the request is a
// navigational document, the cached root page is served as an offline
// substitute; otherwise the fetch error propagates.
func (p *Policy) Serve(ctx context.Context, url string, navigation bool) (Entry, error) {
	if e, ok := p.Storage.Open(p.StaticCache).Lookup(url); ok {
		return e, nil
	}
	if e, ok := p.Storage.Open(p.RuntimeCache).Lookup(url); ok {
		return e, nil
	}

	e, err := p.Fetch(ctx, url)
	if err != nil {
		if navigation {
			if root, ok := p.Storage.Open(p.StaticCache).Lookup(p.RootPage); ok {
				return root, nil
			}
		}
		return Entry{}, err
	}
	if e.Status == http.StatusOK {
		p.Storage.Open(p.RuntimeCache).Store(url, copyEntry(e))
	}
	return e, nil
}

func copyEntry(e Entry) Entry {
	dup := Entry{Status: e.Status, Header: e.Header.Clone(), Body: make([]byte, len(e.Body))}
	copy(dup.Body, e.Body)
	return dup
}

// MemoryStorage is the in-memory Storage used by the /cdn proxy and by
// tests. Safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

// Open returns the named cache, creating it if needed.
func (s *MemoryStorage) Open(name string) Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]Entry)}
		s.caches[name] = c
	}
	return c
}

// EvictAllExcept deletes every cache the predicate rejects.
func (s *MemoryStorage) EvictAllExcept(keep func(name string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.caches {
		if !keep(name) {
			delete(s.caches, name)
		}
	}
}

// Names returns the existing cache names, sorted.
func (s *MemoryStorage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func (c *memoryCache) Lookup(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *memoryCache) Store(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// HTTPFetcher returns a Fetcher backed by client. Responses are read fully
// so cached entries are self-contained.
func HTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (Entry, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Entry{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return Entry{}, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
	}
}
