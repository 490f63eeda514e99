// Package vectorstore persists chunk embeddings and answers approximate
// (here, exact-but-brute-force) cosine-similarity search. Brute force is
// a deliberate choice over an approximate index such as HNSW: it is the
// only option that is stable under identical inputs between index
// mutations, which an approximate graph traversal order is not
// guaranteed to be as neighbors are concurrently inserted.
package vectorstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var bucketVectors = []byte("vectors")
var bucketHeader = []byte("header")

var headerKey = []byte("header")

// Header records the embedding provider identity the store was built
// with. The engine compares this against the configured provider at
// startup and rebuilds the store on mismatch rather than serving vectors
// from a different embedding space.
type Header struct {
	Schema            uint32    `json:"schema"`
	EmbeddingIdentity string    `json:"embedding_identity"`
	Dimensions        int       `json:"dimensions"`
	CreatedAt         time.Time `json:"created_at"`
}

const currentSchema uint32 = 1

type record struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
}

// Store persists embedding records in bbolt and serves cosine-similarity
// search from an in-memory mirror kept consistent with the on-disk
// bucket. The in-memory mirror exists because bbolt has no notion of
// vector search; every record it holds is small (a chunk ID and a few
// hundred float32s) so mirroring the whole store in memory is cheap
// relative to the I/O it saves on every query.
type Store struct {
	db *bbolt.DB

	mu      sync.RWMutex
	vectors map[string][]float32
}

// Open opens or creates the bbolt file at path and loads its contents
// into memory.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVectors); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketHeader); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vectorstore: init buckets: %w", err)
	}

	s := &Store{db: db, vectors: make(map[string][]float32)}
	if err := s.loadAll(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		return b.ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("vectorstore: corrupt record %q: %w", k, err)
			}
			s.vectors[rec.ChunkID] = rec.Vector
			return nil
		})
	})
}

// Header returns the stored header, or nil if the store has never been
// initialized by an indexing run.
func (s *Store) Header() (*Header, error) {
	var hdr *Header
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHeader)
		data := b.Get(headerKey)
		if data == nil {
			return nil
		}
		hdr = &Header{}
		return json.Unmarshal(data, hdr)
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: read header: %w", err)
	}
	return hdr, nil
}

// WriteHeader overwrites the stored header. Callers call this once per
// index rebuild, after clearing existing vectors if the embedding
// identity has changed.
func (s *Store) WriteHeader(hdr Header) error {
	hdr.Schema = currentSchema
	data, err := json.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("vectorstore: marshal header: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHeader).Put(headerKey, data)
	})
}

// Upsert stores vec (assumed already unit-normalized by the caller)
// under chunkID, replacing any prior vector for that chunk.
func (s *Store) Upsert(chunkID string, vec []float32) error {
	rec := record{ChunkID: chunkID, Vector: vec}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("vectorstore: marshal record: %w", err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).Put([]byte(chunkID), data)
	}); err != nil {
		return fmt.Errorf("vectorstore: upsert %q: %w", chunkID, err)
	}

	s.mu.Lock()
	s.vectors[chunkID] = vec
	s.mu.Unlock()
	return nil
}

// Delete removes chunkID's vector, if present. Deleting an absent ID is
// not an error.
func (s *Store) Delete(chunkID string) error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).Delete([]byte(chunkID))
	}); err != nil {
		return fmt.Errorf("vectorstore: delete %q: %w", chunkID, err)
	}

	s.mu.Lock()
	delete(s.vectors, chunkID)
	s.mu.Unlock()
	return nil
}

// Search returns up to k records ordered by cosine similarity
// descending, ties broken by chunk ID ascending. queryVec must already
// be unit-normalized the same way stored vectors are.
func (s *Store) Search(queryVec []float32, k int) []Hit {
	s.mu.RLock()
	hits := make([]Hit, 0, len(s.vectors))
	for chunkID, vec := range s.vectors {
		if len(vec) != len(queryVec) {
			continue
		}
		hits = append(hits, Hit{ChunkID: chunkID, Cosine: cosineSimilarity(queryVec, vec)})
	}
	s.mu.RUnlock()

	return selectTopK(hits, k)
}

// Count returns the number of vectors currently stored.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Clear removes every stored vector and header, used when the embedding
// identity changes and the index must be rebuilt from scratch.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if err := tx.DeleteBucket(bucketHeader); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(bucketVectors); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketHeader); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("vectorstore: clear: %w", err)
	}

	s.mu.Lock()
	s.vectors = make(map[string][]float32)
	s.mu.Unlock()
	return nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error {
	return s.db.Close()
}
