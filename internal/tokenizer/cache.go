package tokenizer

import (
	"context"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// shardCount fixes the number of independent LRU shards the cache
// distributes entries across by text hash, bounding per-shard lock
// contention under concurrent retrieval fan-out.
const shardCount = 16

// defaultShardCapacity is the per-shard entry limit.
const defaultShardCapacity = 4096

type cacheKey struct {
	family ModelFamily
	text   string
}

// CachingTokenizer memoizes Count results for an underlying Tokenizer,
// keyed on (model family, text). Entries are sharded by a hash of the
// text so that a single high-churn shard cannot evict a working set
// shared by the rest of a large query batch.
type CachingTokenizer struct {
	underlying Tokenizer
	shards     [shardCount]*lru.Cache[cacheKey, Result]
}

// NewCachingTokenizer wraps underlying with a sharded memoization cache.
func NewCachingTokenizer(underlying Tokenizer) *CachingTokenizer {
	c := &CachingTokenizer{underlying: underlying}
	for i := range c.shards {
		shard, err := lru.New[cacheKey, Result](defaultShardCapacity)
		if err != nil {
			// Only non-positive capacity makes lru.New fail, and
			// defaultShardCapacity is a positive constant above.
			panic(err)
		}
		c.shards[i] = shard
	}
	return c
}

func (c *CachingTokenizer) shardFor(text string) *lru.Cache[cacheKey, Result] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return c.shards[h.Sum32()%shardCount]
}

func (c *CachingTokenizer) Count(ctx context.Context, family ModelFamily, text string) Result {
	key := cacheKey{family: family, text: text}
	shard := c.shardFor(text)
	if result, ok := shard.Get(key); ok {
		return result
	}
	result := c.underlying.Count(ctx, family, text)
	shard.Add(key, result)
	return result
}

func (c *CachingTokenizer) CountBatch(ctx context.Context, family ModelFamily, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = c.Count(ctx, family, text)
	}
	return results
}
