package cache

import (
	"context"

	"github.com/matzehuels/taxotree/pkg/observability"
)

// Artifacts caches rendered output by scene hash.
type Artifacts struct {
	Cache Cache
	Keyer Keyer
}

// NewArtifacts wraps c. Nil arguments select [NullCache] and the default
// keyer.
func NewArtifacts(c Cache, k Keyer) *Artifacts {
	if c == nil {
		c = NewNullCache()
	}
	if k == nil {
		k = NewDefaultKeyer()
	}
	return &Artifacts{Cache: c, Keyer: k}
}

// GetOrRender returns the cached artifact for sceneHash and opts, calling
// render and storing its result on a miss. Cache read and write failures
// degrade to rendering; only render errors are returned.
func (a *Artifacts) GetOrRender(ctx context.Context, sceneHash string, opts ArtifactKeyOpts, render func() ([]byte, error)) ([]byte, bool, error) {
	key := a.Keyer.ArtifactKey(sceneHash, opts)
	if data, hit, err := a.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, opts.Format)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, opts.Format)

	data, err := render()
	if err != nil {
		return nil, false, err
	}
	if err := a.Cache.Set(ctx, key, data, TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, opts.Format, len(data))
	}
	return data, false, nil
}
