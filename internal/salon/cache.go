package salon

import (
	"context"
	"time"

	"github.com/glowbook/glowbook/internal/platform/cache"
	"golang.org/x/sync/singleflight"
)

// CachedRepository serves GetByID from Redis and evicts on Update. Salons
// are read on every booking and rarely change. Concurrent misses for the
// same salon share one database read.
type CachedRepository struct {
	Repository
	cache *cache.JSON
	group singleflight.Group
}

// loadTimeout bounds a shared database read, which outlives the caller
// that started it.
const loadTimeout = 5 * time.Second

func NewCachedRepository(repo Repository, c *cache.JSON) *CachedRepository {
	return &CachedRepository{Repository: repo, cache: c}
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (*Salon, error) {
	var s Salon
	if r.cache.Get(ctx, id, &s) {
		return &s, nil
	}
	// The shared read must not die with the caller that started it; each
	// caller still gives up on its own context.
	ch := r.group.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		got, err := r.Repository.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		r.cache.Set(loadCtx, id, got)
		return got, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers may mutate the result; never hand out the shared pointer.
		got := *res.Val.(*Salon)
		return &got, nil
	}
}

func (r *CachedRepository) Update(ctx context.Context, s *Salon) (*Salon, error) {
	updated, err := r.Repository.Update(ctx, s)
	if err != nil {
		return nil, err
	}
	r.cache.Delete(ctx, s.ID)
	r.group.Forget(s.ID)
	return updated, nil
}
