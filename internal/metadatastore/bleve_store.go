// Package metadatastore persists chunk metadata and content, serves
// BM25-ranked full-text search over identifier-split tokens, recency
// lookups, and exact symbol lookups, and tracks the dependency edges a
// chunk declares. The chunk/token/recency surface is backed by Bleve
// (the teacher's full-text engine); the dependency graph is a small
// relational table, since graph-style joins are a poor fit for a
// document index.
package metadatastore

import (
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevesearch "github.com/blevesearch/bleve/v2/search"

	"github.com/nilreef/ctxengine/internal/model"
)

// bleveDoc is the document shape persisted for each chunk. Tokens holds
// the identifier-split, case-folded token stream derived from Content;
// it is what full-text search actually matches against, mirroring the
// spec's separate chunks/chunks_fts split without a second physical
// store.
type bleveDoc struct {
	FilePath     string `json:"file_path"`
	Content      string `json:"content"`
	Tokens       string `json:"tokens"`
	LineStart    int    `json:"line_start"`
	LineEnd      int    `json:"line_end"`
	Language     string `json:"language"`
	SymbolName   string `json:"symbol_name"`
	SymbolType   string `json:"symbol_type"`
	LastModified int64  `json:"last_modified"`
	ContentHash  string `json:"content_hash"`
}

// ChunkStore is the Bleve-backed implementation of the chunk metadata
// and full-text surface.
type ChunkStore struct {
	index bleve.Index
}

// OpenChunkStore opens or creates a Bleve index at path.
func OpenChunkStore(path string) (*ChunkStore, error) {
	index, err := bleve.Open(path)
	if err == nil {
		return &ChunkStore{index: index}, nil
	}

	idxMapping := buildIndexMapping()
	index, err = bleve.New(path, idxMapping)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: create index: %w", err)
	}
	return &ChunkStore{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "standard"

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"

	docMapping.AddFieldMappingsAt("tokens", textField)
	docMapping.AddFieldMappingsAt("symbol_name", keywordField)
	docMapping.AddFieldMappingsAt("file_path", keywordField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Index = false
	contentField.Store = true
	docMapping.AddFieldMappingsAt("content", contentField)

	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultMapping = docMapping
	return idxMapping
}

func toDoc(c model.Chunk) bleveDoc {
	tokens := SplitIdentifiers(c.Content)
	return bleveDoc{
		FilePath:     c.FilePath,
		Content:      c.Content,
		Tokens:       joinTokens(tokens),
		LineStart:    c.LineRange.Start,
		LineEnd:      c.LineRange.End,
		Language:     c.Language,
		SymbolName:   c.SymbolName,
		SymbolType:   string(c.SymbolType),
		LastModified: c.LastModified,
		ContentHash:  c.ContentHash,
	}
}

func joinTokens(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

func fromDoc(chunkID string, d bleveDoc) model.Chunk {
	return model.Chunk{
		ID:           chunkID,
		FilePath:     d.FilePath,
		Content:      d.Content,
		LineRange:    model.LineRange{Start: d.LineStart, End: d.LineEnd},
		Language:     d.Language,
		SymbolName:   d.SymbolName,
		SymbolType:   model.SymbolType(d.SymbolType),
		LastModified: d.LastModified,
		ContentHash:  d.ContentHash,
	}
}

// Upsert stores or replaces chunk's metadata record.
func (s *ChunkStore) Upsert(c model.Chunk) error {
	if err := s.index.Index(c.ID, toDoc(c)); err != nil {
		return fmt.Errorf("metadatastore: upsert %q: %w", c.ID, err)
	}
	return nil
}

// Delete removes chunkID's metadata record, if present.
func (s *ChunkStore) Delete(chunkID string) error {
	if err := s.index.Delete(chunkID); err != nil {
		return fmt.Errorf("metadatastore: delete %q: %w", chunkID, err)
	}
	return nil
}

// Get returns chunkID's record, or (zero, false) if absent.
func (s *ChunkStore) Get(chunkID string) (model.Chunk, bool, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{chunkID}))
	req.Fields = []string{"*"}
	req.Size = 1

	result, err := s.index.Search(req)
	if err != nil {
		return model.Chunk{}, false, fmt.Errorf("metadatastore: get %q: %w", chunkID, err)
	}
	if len(result.Hits) == 0 {
		return model.Chunk{}, false, nil
	}
	return fromDoc(chunkID, docFromFields(result.Hits[0].Fields)), true, nil
}

// FullTextSearchHit is one BM25 full-text search result.
type FullTextSearchHit struct {
	ChunkID      string
	BM25Score    float64
	MatchedTerms []string
}

// FullTextSearch matches query's identifier-split tokens against the
// tokens field and returns up to k hits ordered by Bleve's score
// descending. Scores are Bleve's native relevance score (a BM25-family
// scorer); the engine is responsible for the s/(s+10) normalization, not
// this store.
func (s *ChunkStore) FullTextSearch(query string, k int) ([]FullTextSearchHit, error) {
	terms := SplitIdentifiers(query)
	if len(terms) == 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(joinTokens(terms))
	q.SetField("tokens")

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"tokens"}
	req.IncludeLocations = true

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: full_text_search: %w", err)
	}

	hits := make([]FullTextSearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, FullTextSearchHit{
			ChunkID:      hit.ID,
			BM25Score:    hit.Score,
			MatchedTerms: matchedTermsFromLocations(hit, terms),
		})
	}
	return hits, nil
}

func matchedTermsFromLocations(hit *blevesearch.DocumentMatch, queryTerms []string) []string {
	matched := make(map[string]struct{})
	for field, termLocs := range hit.Locations {
		if field != "tokens" {
			continue
		}
		for term := range termLocs {
			matched[term] = struct{}{}
		}
	}
	out := make([]string, 0, len(matched))
	for _, term := range queryTerms {
		if _, ok := matched[term]; ok {
			out = append(out, term)
		}
	}
	return out
}

// Recent returns chunks with LastModified >= before, ordered by
// LastModified descending, capped at k.
func (s *ChunkStore) Recent(before int64, k int) ([]model.Chunk, error) {
	q := bleve.NewNumericRangeQuery(floatPtr(float64(before)), nil)
	q.SetField("last_modified")

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-last_modified"})

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: recent: %w", err)
	}

	chunks := make([]model.Chunk, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunks = append(chunks, fromDoc(hit.ID, docFromFields(hit.Fields)))
	}
	return chunks, nil
}

// BySymbol returns all chunks whose SymbolName exactly matches name,
// used to seed dependency traversal.
func (s *ChunkStore) BySymbol(name string) ([]model.Chunk, error) {
	q := bleve.NewTermQuery(name)
	q.SetField("symbol_name")

	req := bleve.NewSearchRequestOptions(q, maxBySymbolResults, 0, false)
	req.Fields = []string{"*"}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: by_symbol %q: %w", name, err)
	}

	chunks := make([]model.Chunk, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunks = append(chunks, fromDoc(hit.ID, docFromFields(hit.Fields)))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks, nil
}

// ByFilePath returns every chunk indexed under filePath, used by the
// indexer to diff a file's current chunk set against what is stored.
func (s *ChunkStore) ByFilePath(filePath string) ([]model.Chunk, error) {
	q := bleve.NewTermQuery(filePath)
	q.SetField("file_path")

	req := bleve.NewSearchRequestOptions(q, maxByFilePathResults, 0, false)
	req.Fields = []string{"*"}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: by_file_path %q: %w", filePath, err)
	}

	chunks := make([]model.Chunk, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunks = append(chunks, fromDoc(hit.ID, docFromFields(hit.Fields)))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks, nil
}

const maxByFilePathResults = 4096

const maxBySymbolResults = 256

func floatPtr(f float64) *float64 { return &f }

// Close closes the underlying Bleve index.
func (s *ChunkStore) Close() error {
	return s.index.Close()
}

func docFromFields(fields map[string]interface{}) bleveDoc {
	get := func(key string) string {
		v, _ := fields[key].(string)
		return v
	}
	getInt := func(key string) int {
		v, ok := fields[key].(float64)
		if !ok {
			return 0
		}
		return int(v)
	}
	getInt64 := func(key string) int64 {
		v, ok := fields[key].(float64)
		if !ok {
			return 0
		}
		return int64(v)
	}
	return bleveDoc{
		FilePath:     get("file_path"),
		Content:      get("content"),
		Tokens:       get("tokens"),
		LineStart:    getInt("line_start"),
		LineEnd:      getInt("line_end"),
		Language:     get("language"),
		SymbolName:   get("symbol_name"),
		SymbolType:   get("symbol_type"),
		LastModified: getInt64("last_modified"),
		ContentHash:  get("content_hash"),
	}
}
