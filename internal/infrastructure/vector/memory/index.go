package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// Index is an in-process vector index with strict per-collection isolation.
// Each collection carries its own lock so writes to one document never
// stall reads against another.
type Index struct {
	mu          sync.Mutex
	collections map[string]*collection
}

type collection struct {
	mu      sync.RWMutex
	id      string
	dim     int
	entries map[string]record
}

// record stamps each entry with the collection it was written to; the query
// path re-checks the stamp so a cross-collection leak can never pass
// silently.
type record struct {
	collectionID string
	entry        domain.IndexEntry
}

func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// Upsert is idempotent by chunk id: re-upserting replaces the stored vector
// and metadata without accumulating duplicates. Mixing vector
// dimensionalities inside one collection is rejected.
func (x *Index) Upsert(ctx context.Context, collectionID string, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	col := x.collection(collectionID, true)
	col.mu.Lock()
	defer col.mu.Unlock()

	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "index upsert", fmt.Errorf("empty vector for chunk %s", entry.ChunkID))
		}
		if col.dim == 0 {
			col.dim = len(entry.Vector)
		}
		if len(entry.Vector) != col.dim {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"index upsert",
				fmt.Errorf("vector dimensionality %d does not match collection dimensionality %d", len(entry.Vector), col.dim),
			)
		}
		col.entries[entry.ChunkID] = record{collectionID: collectionID, entry: entry}
	}
	return nil
}

// Query returns up to topK hits ordered by descending cosine similarity,
// ties broken by chunk sequence index for reproducible ordering. Results
// come exclusively from the requested collection.
func (x *Index) Query(
	ctx context.Context,
	collectionID string,
	queryVector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 || len(queryVector) == 0 {
		return nil, nil
	}

	col := x.collection(collectionID, false)
	if col == nil {
		return nil, nil
	}

	col.mu.RLock()
	defer col.mu.RUnlock()

	hits := make([]domain.ScoredChunk, 0, len(col.entries))
	for _, rec := range col.entries {
		if rec.collectionID != collectionID {
			return nil, domain.WrapError(
				domain.ErrIndexIsolation,
				"index query",
				fmt.Errorf("entry %s stamped for collection %s, queried %s", rec.entry.ChunkID, rec.collectionID, collectionID),
			)
		}
		if !matchesFilter(rec.entry.Chunk, filter) {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: rec.entry.Chunk,
			Score: cosineSimilarity(queryVector, rec.entry.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes a whole collection. Deleting a missing collection is a
// no-op, not an error.
func (x *Index) Delete(ctx context.Context, collectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, collectionID)
	return nil
}

// Size reports the entry count of a collection.
func (x *Index) Size(collectionID string) int {
	col := x.collection(collectionID, false)
	if col == nil {
		return 0
	}
	col.mu.RLock()
	defer col.mu.RUnlock()
	return len(col.entries)
}

func (x *Index) collection(id string, create bool) *collection {
	x.mu.Lock()
	defer x.mu.Unlock()
	col, ok := x.collections[id]
	if !ok && create {
		col = &collection{id: id, entries: make(map[string]record)}
		x.collections[id] = col
	}
	return col
}

func matchesFilter(chunk domain.Chunk, filter domain.SearchFilter) bool {
	if !filter.Pages.Contains(chunk.Page) {
		return false
	}
	if filter.Subject != "" && filter.Subject != domain.SubjectAuto && chunk.Subject != filter.Subject {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
