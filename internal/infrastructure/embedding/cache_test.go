package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

type remoteFake struct {
	mu         sync.Mutex
	batchCalls int
	itemCalls  int
	batchErr   error
	failItems  map[string]error
}

func (f *remoteFake) ModelID() string { return "test-model" }

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func (f *remoteFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorFor(text)
	}
	return out, nil
}

func (f *remoteFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if err, ok := f.failItems[text]; ok {
		return nil, err
	}
	return vectorFor(text), nil
}

func TestEmbedCachesByContent(t *testing.T) {
	remote := &remoteFake{}
	cache := NewCachingEmbedder(remote)

	first, err := cache.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed error = %v", err)
	}
	second, err := cache.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed error = %v", err)
	}

	if remote.batchCalls != 1 {
		t.Fatalf("batchCalls = %d, want 1", remote.batchCalls)
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatal("cached vector differs from original")
			}
		}
	}
}

func TestEmbedObservesHitsAndMisses(t *testing.T) {
	cache := NewCachingEmbedder(&remoteFake{})
	var hits, misses int
	cache.Observe = func(result string) {
		switch result {
		case "hit":
			hits++
		case "miss":
			misses++
		}
	}

	if _, err := cache.Embed(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("Embed error = %v", err)
	}
	if _, err := cache.Embed(context.Background(), []string{"a", "c"}); err != nil {
		t.Fatalf("Embed error = %v", err)
	}

	if misses != 3 {
		t.Fatalf("misses = %d, want 3", misses)
	}
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestEmbedPartialBatchFallback(t *testing.T) {
	remote := &remoteFake{
		batchErr:  fmt.Errorf("batch endpoint down"),
		failItems: map[string]error{"bad": fmt.Errorf("item rejected")},
	}
	cache := NewCachingEmbedder(remote)

	vectors, err := cache.Embed(context.Background(), []string{"good", "bad", "also good"})

	var partial *domain.PartialBatchError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialBatchError, got %v", err)
	}
	if _, ok := partial.Failed[1]; !ok || len(partial.Failed) != 1 {
		t.Fatalf("Failed = %v, want only index 1", partial.Failed)
	}
	if vectors[0] == nil || vectors[2] == nil {
		t.Fatal("sibling vectors must survive a partial failure")
	}
	if vectors[1] != nil {
		t.Fatal("failed item must have no vector")
	}
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatal("partial failure must report the embedding kind")
	}
}

func TestEmbedQueryCaches(t *testing.T) {
	remote := &remoteFake{}
	cache := NewCachingEmbedder(remote)

	for i := 0; i < 3; i++ {
		if _, err := cache.EmbedQuery(context.Background(), "same text"); err != nil {
			t.Fatalf("EmbedQuery error = %v", err)
		}
	}
	if remote.itemCalls != 1 {
		t.Fatalf("itemCalls = %d, want 1", remote.itemCalls)
	}
}

func TestEmbedQueryCacheEntriesExpire(t *testing.T) {
	remote := &remoteFake{}
	cache := NewCachingEmbedderWithTTL(remote, 20*time.Millisecond, 10*time.Millisecond)

	for i := 0; i < 100; i++ {
		if _, err := cache.EmbedQuery(context.Background(), fmt.Sprintf("chunk %d", i)); err != nil {
			t.Fatalf("EmbedQuery error = %v", err)
		}
	}
	if remote.itemCalls != 100 {
		t.Fatalf("itemCalls = %d, want 100 distinct misses", remote.itemCalls)
	}

	time.Sleep(60 * time.Millisecond)

	// Expired entries must not be served; the same text misses again.
	if _, err := cache.EmbedQuery(context.Background(), "chunk 0"); err != nil {
		t.Fatalf("EmbedQuery error = %v", err)
	}
	if remote.itemCalls != 101 {
		t.Fatalf("itemCalls = %d, want a fresh remote call after expiry", remote.itemCalls)
	}
}

func TestEmbedConcurrentMissesDoNotCorrupt(t *testing.T) {
	remote := &remoteFake{}
	cache := NewCachingEmbedder(remote)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vector, err := cache.EmbedQuery(context.Background(), "raced")
			if err != nil {
				t.Errorf("EmbedQuery error = %v", err)
				return
			}
			want := vectorFor("raced")
			if vector[0] != want[0] || vector[1] != want[1] {
				t.Errorf("corrupted vector %v", vector)
			}
		}()
	}
	wg.Wait()
}
