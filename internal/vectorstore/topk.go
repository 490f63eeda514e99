package vectorstore

import (
	"container/heap"
	"sort"
)

// Hit is one vector-search result: a chunk ID and its raw cosine
// similarity (not yet rescaled to [0,1]).
type Hit struct {
	ChunkID string
	Cosine  float64
}

// scoredHeap is a min-heap of Hits ordered by ascending Cosine, so the
// smallest-scoring entry is always at the root and can be evicted in
// O(log k) when a better candidate arrives.
type scoredHeap []Hit

func (h scoredHeap) Len() int { return len(h) }
func (h scoredHeap) Less(i, j int) bool {
	return h[i].Cosine < h[j].Cosine || (h[i].Cosine == h[j].Cosine && h[i].ChunkID > h[j].ChunkID)
}
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x interface{}) { *h = append(*h, x.(Hit)) }
func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// selectTopK returns the k highest-Cosine hits, descending, breaking ties
// by ChunkID ascending so that repeated searches against unchanged state
// are byte-identical regardless of hit discovery order. Time complexity
// is O(n log k): a full sort is only used in the k >= len(hits) shortcut.
func selectTopK(hits []Hit, k int) []Hit {
	if k <= 0 {
		return nil
	}
	if len(hits) <= k {
		sortHits(hits)
		return hits
	}

	h := make(scoredHeap, k)
	copy(h, hits[:k])
	heap.Init(&h)

	for i := k; i < len(hits); i++ {
		if hits[i].Cosine > h[0].Cosine || (hits[i].Cosine == h[0].Cosine && hits[i].ChunkID < h[0].ChunkID) {
			h[0] = hits[i]
			heap.Fix(&h, 0)
		}
	}

	result := make([]Hit, k)
	for i := k - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(Hit)
	}
	sortHits(result)
	return result
}

// sortHits enforces the final descending-score, tie-break-by-id order.
// The heap above only guarantees the top-k set, not their relative
// order once extracted with equal scores, so a stable final sort is
// still required.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Cosine != hits[j].Cosine {
			return hits[i].Cosine > hits[j].Cosine
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}
