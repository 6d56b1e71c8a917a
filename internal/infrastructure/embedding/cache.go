package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/smartprep/mcq-engine/internal/core/domain"
	"github.com/smartprep/mcq-engine/internal/core/ports"
)

const (
	defaultCacheTTL     = 6 * time.Hour
	defaultCacheCleanup = 15 * time.Minute
)

// CachingEmbedder wraps the remote embedder with a content-hash cache keyed
// by (model, text). Results are deterministic for a fixed model and text,
// so a cache-miss race resolves last-writer-wins without corruption.
// Entries expire after a TTL: vectors are recomputable, so expiry costs one
// remote call and keeps a long-running worker's memory bounded.
type CachingEmbedder struct {
	remote ports.Embedder
	cache  *cache.Cache

	// Observe, when set, receives "hit" or "miss" per lookup.
	Observe func(result string)
}

func NewCachingEmbedder(remote ports.Embedder) *CachingEmbedder {
	return NewCachingEmbedderWithTTL(remote, defaultCacheTTL, defaultCacheCleanup)
}

func NewCachingEmbedderWithTTL(remote ports.Embedder, ttl, cleanupInterval time.Duration) *CachingEmbedder {
	return &CachingEmbedder{
		remote: remote,
		cache:  cache.New(ttl, cleanupInterval),
	}
}

func (e *CachingEmbedder) ModelID() string {
	return e.remote.ModelID()
}

// Embed returns one vector per input text. On a remote batch failure it
// falls back to per-item calls; persistent per-item failures are collected
// into a *domain.PartialBatchError while sibling vectors stay valid.
func (e *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if cached, ok := e.lookup(text); ok {
			vectors[i] = cached
			e.observe("hit")
			continue
		}
		e.observe("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missIdx) == 0 {
		return vectors, nil
	}

	fresh, err := e.remote.Embed(ctx, missTexts)
	if err == nil && len(fresh) == len(missTexts) {
		for j, i := range missIdx {
			vectors[i] = fresh[j]
			e.store(missTexts[j], fresh[j])
		}
		return vectors, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Batch path failed; retry items individually so one bad item cannot
	// sink its siblings.
	failed := make(map[int]error)
	for j, i := range missIdx {
		vector, itemErr := e.remote.EmbedQuery(ctx, missTexts[j])
		if itemErr != nil {
			failed[i] = itemErr
			continue
		}
		vectors[i] = vector
		e.store(missTexts[j], vector)
	}
	if len(failed) > 0 {
		return vectors, &domain.PartialBatchError{Failed: failed}
	}
	return vectors, nil
}

func (e *CachingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.lookup(text); ok {
		e.observe("hit")
		return cached, nil
	}
	e.observe("miss")

	vector, err := e.remote.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(text, vector)
	return vector, nil
}

func (e *CachingEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.remote.ModelID() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (e *CachingEmbedder) lookup(text string) ([]float32, bool) {
	if x, found := e.cache.Get(e.key(text)); found {
		return x.([]float32), true
	}
	return nil, false
}

func (e *CachingEmbedder) store(text string, vector []float32) {
	e.cache.Set(e.key(text), vector, cache.DefaultExpiration)
}

func (e *CachingEmbedder) observe(result string) {
	if e.Observe != nil {
		e.Observe(result)
	}
}
