package indexer

import (
	"fmt"
	"time"

	"github.com/nilreef/ctxengine/internal/vectorstore"
)

// ExpectedHeader is the embedding identity and dimensionality the
// running engine configuration expects of the persisted vector store.
type ExpectedHeader struct {
	EmbeddingIdentity string
	Dimensions        int
}

// VectorClearer is the subset of vectorstore.Store this package needs
// to reconcile a stale header, kept as an interface so tests can stub
// it without a real bbolt file.
type VectorClearer interface {
	Header() (*vectorstore.Header, error)
	WriteHeader(vectorstore.Header) error
	Clear() error
}

// ReconcileHeader compares store's persisted header against expected
// and, on any mismatch (including a never-initialized store), clears
// every stored vector and writes a fresh header stamped with expected.
// It reports whether a full reindex is now required.
func ReconcileHeader(store VectorClearer, expected ExpectedHeader) (reindexRequired bool, err error) {
	hdr, err := store.Header()
	if err != nil {
		return false, fmt.Errorf("indexer: read vector store header: %w", err)
	}

	if hdr != nil && hdr.EmbeddingIdentity == expected.EmbeddingIdentity && hdr.Dimensions == expected.Dimensions {
		return false, nil
	}

	if err := store.Clear(); err != nil {
		return false, fmt.Errorf("indexer: clear stale vector store: %w", err)
	}
	if err := store.WriteHeader(vectorstore.Header{
		EmbeddingIdentity: expected.EmbeddingIdentity,
		Dimensions:        expected.Dimensions,
		CreatedAt:         time.Now(),
	}); err != nil {
		return false, fmt.Errorf("indexer: write vector store header: %w", err)
	}

	return true, nil
}
