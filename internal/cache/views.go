package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/polyglot-go/internal/model"
)

const viewKeyPrefix = "views:"

// ViewCache stores rendered translation views keyed by element
// reference. Any structural change to a group must invalidate every
// member's view, since each view lists its siblings.
type ViewCache struct {
	backend Cacher
	ttl     time.Duration
}

// NewViewCache wraps backend with view-specific keying.
func NewViewCache(backend Cacher, ttl time.Duration) *ViewCache {
	return &ViewCache{backend: backend, ttl: ttl}
}

func viewKey(ref model.ElementRef) string {
	return fmt.Sprintf("%s%s:%d", viewKeyPrefix, ref.Kind, ref.ID)
}

// Get returns the cached view bytes for ref, or ErrCacheMiss.
func (c *ViewCache) Get(ctx context.Context, ref model.ElementRef) ([]byte, error) {
	return c.backend.Get(ctx, viewKey(ref))
}

// Set stores the rendered view for ref.
func (c *ViewCache) Set(ctx context.Context, ref model.ElementRef, view []byte) error {
	return c.backend.Set(ctx, viewKey(ref), view, c.ttl)
}

// InvalidateGroup drops the views of every group member. Errors are
// collected but invalidation continues; a stale entry beats an aborted
// pass.
func (c *ViewCache) InvalidateGroup(ctx context.Context, group *model.TranslationGroup) error {
	if group == nil {
		return nil
	}
	var firstErr error
	for _, member := range group.Members {
		if err := c.backend.Delete(ctx, viewKey(member.Element)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InvalidateElement drops one element's view.
func (c *ViewCache) InvalidateElement(ctx context.Context, ref model.ElementRef) error {
	return c.backend.Delete(ctx, viewKey(ref))
}

// InvalidateAll drops every cached view.
func (c *ViewCache) InvalidateAll(ctx context.Context) error {
	return c.backend.DeleteByPrefix(ctx, viewKeyPrefix)
}
