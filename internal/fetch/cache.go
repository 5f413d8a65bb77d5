package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/seoaudit/internal/page"
)

// DocumentLoader loads and parses a page.
type DocumentLoader interface {
	Document(ctx context.Context, target string) (*page.Document, error)
}

// PageCache memoizes documents for the lifetime of one audit run.
// Concurrent requests for the same URL share a single fetch. Failures are
// memoized as well, so a page that could not be read is not requested again
// by later checks of the same run.
type PageCache struct {
	loader DocumentLoader
	group  singleflight.Group

	mu      sync.RWMutex
	results map[string]cachedPage
}

type cachedPage struct {
	doc *page.Document
	err error
}

// NewPageCache creates an empty cache backed by loader.
func NewPageCache(loader DocumentLoader) *PageCache {
	return &PageCache{
		loader:  loader,
		results: make(map[string]cachedPage),
	}
}

// Page returns the parsed document for target.
func (c *PageCache) Page(ctx context.Context, target string) (*page.Document, error) {
	c.mu.RLock()
	cached, ok := c.results[target]
	c.mu.RUnlock()
	if ok {
		return cached.doc, cached.err
	}

	v, err, _ := c.group.Do(target, func() (any, error) {
		doc, err := c.loader.Document(ctx, target)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.results[target] = cachedPage{doc: doc, err: err}
			c.mu.Unlock()
		}
		return doc, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*page.Document), nil //nolint:forcetypeassert // only *page.Document is stored
}

// Fingerprint returns the fingerprint of a cached document, or "" when
// target has not been fetched successfully.
func (c *PageCache) Fingerprint(target string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.results[target]; ok && cached.doc != nil {
		return cached.doc.Fingerprint()
	}
	return ""
}
