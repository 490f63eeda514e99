// Package indexer turns files on disk into chunk/embedding/dependency
// records in the engine's stores, scanning the initial workspace,
// watching for subsequent changes, and diffing each file's chunk set
// by content hash so unchanged spans are never re-embedded.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nilreef/ctxengine/internal/chunker"
	"github.com/nilreef/ctxengine/internal/embedding"
	"github.com/nilreef/ctxengine/internal/metadatastore"
	"github.com/nilreef/ctxengine/internal/model"
)

// DefaultConcurrency bounds how many files are indexed at once.
const DefaultConcurrency = 4

// ChunkMetadataStore is the subset of metadatastore.ChunkStore the
// indexer needs, named here so tests can substitute a fake.
type ChunkMetadataStore interface {
	Upsert(model.Chunk) error
	Delete(chunkID string) error
	ByFilePath(filePath string) ([]model.Chunk, error)
}

// DependencyStore is the subset of metadatastore.DepsStore the indexer
// needs.
type DependencyStore interface {
	ReplaceEdges(srcChunkID string, edges []metadatastore.DepEdge) error
	DeleteBySource(srcChunkID string) error
}

// VectorWriter is the subset of vectorstore.Store the indexer needs.
type VectorWriter interface {
	Upsert(chunkID string, vec []float32) error
	Delete(chunkID string) error
}

// Config wires the indexer's dependencies together.
type Config struct {
	Concurrency int
	Parsers     *chunker.Registry
	Embedder    embedding.Provider
	Chunks      ChunkMetadataStore
	Deps        DependencyStore
	Vectors     VectorWriter
	LanguageOf  func(ext string) (string, bool)
}

// Indexer drives one workspace's chunk/embedding/dependency records
// from file content, bounded by a worker pool and diffed per file by
// content hash so an unchanged span is never re-embedded or re-upserted.
type Indexer struct {
	config Config
}

// New constructs an Indexer. Concurrency defaults to DefaultConcurrency
// when unset.
func New(config Config) *Indexer {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return &Indexer{config: config}
}

// IndexWorkspace scans root and indexes every accepted file, bounded by
// config.Concurrency files in flight at once.
func (ix *Indexer) IndexWorkspace(ctx context.Context, root string) error {
	scanner := NewScanner(ScanConfig{RootPath: root, LanguageOf: ix.config.LanguageOf})
	files, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("indexer: scan %q: %w", root, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.config.Concurrency)

	for f := range files {
		f := f
		g.Go(func() error {
			return ix.IndexFile(gctx, f.Path, f.ModTime.UnixMilli())
		})
	}
	return g.Wait()
}

// IndexFile reads path, rebuilds its chunk spans, and diffs them
// against what is currently stored for that file, applying only the
// minimal set of upserts and deletes needed to converge.
func (ix *Indexer) IndexFile(ctx context.Context, path string, modifiedAtMillis int64) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("indexer: read %q: %w", path, err)
	}

	language, ext := ix.resolveLanguage(path)
	spans, deps := ix.buildSpansAndDeps(string(content), ext, language)

	fresh := make([]model.Chunk, 0, len(spans))
	for _, span := range spans {
		lr := model.LineRange{Start: span.LineStart, End: span.LineEnd}
		spanText := sliceLines(string(content), span.LineStart, span.LineEnd)
		chunk := model.NewChunk(path, spanText, lr, language)
		chunk.SymbolName = span.Name
		chunk.SymbolType = mapSymbolType(span.Kind)
		chunk.LastModified = modifiedAtMillis
		if deps != nil {
			chunk.Imports = deps.Imports
			chunk.Calls = deps.Calls[span.Name]
		}
		fresh = append(fresh, *chunk)
	}

	existing, err := ix.config.Chunks.ByFilePath(model.NormalizePath(path))
	if err != nil {
		return fmt.Errorf("indexer: list existing chunks for %q: %w", path, err)
	}

	toDelete, toUpsert := diffChunks(existing, fresh)

	for _, id := range toDelete {
		if err := ix.deleteChunk(id); err != nil {
			return err
		}
	}
	for _, chunk := range toUpsert {
		if err := ix.upsertChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFile deletes every chunk indexed under path, used when a
// watched file is removed.
func (ix *Indexer) RemoveFile(path string) error {
	existing, err := ix.config.Chunks.ByFilePath(model.NormalizePath(path))
	if err != nil {
		return fmt.Errorf("indexer: list chunks for removed file %q: %w", path, err)
	}
	for _, c := range existing {
		if err := ix.deleteChunk(c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) resolveLanguage(path string) (language, ext string) {
	ext = extOf(path)
	if ix.config.LanguageOf != nil {
		if lang, ok := ix.config.LanguageOf(ext); ok {
			return lang, ext
		}
	}
	return "", ext
}

func (ix *Indexer) buildSpansAndDeps(content, ext, language string) ([]chunker.Span, *chunker.Dependencies) {
	var parser chunker.LanguageParser
	if ix.config.Parsers != nil {
		parser, _ = ix.config.Parsers.For(ext)
	}

	spans := chunker.BuildSpans(content, parser)

	if language == "go" {
		if deps, ok := chunker.ExtractGoDependencies(content); ok {
			return spans, &deps
		}
	}
	return spans, nil
}

func (ix *Indexer) upsertChunk(ctx context.Context, chunk model.Chunk) error {
	if err := ix.config.Chunks.Upsert(chunk); err != nil {
		return fmt.Errorf("indexer: upsert metadata %q: %w", chunk.ID, err)
	}

	vec, err := ix.config.Embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("indexer: embed %q: %w", chunk.ID, err)
	}
	if err := ix.config.Vectors.Upsert(chunk.ID, vec); err != nil {
		return fmt.Errorf("indexer: upsert vector %q: %w", chunk.ID, err)
	}

	edges := dependencyEdges(chunk)
	if err := ix.config.Deps.ReplaceEdges(chunk.ID, edges); err != nil {
		return fmt.Errorf("indexer: replace deps %q: %w", chunk.ID, err)
	}
	return nil
}

func (ix *Indexer) deleteChunk(chunkID string) error {
	if err := ix.config.Chunks.Delete(chunkID); err != nil {
		return fmt.Errorf("indexer: delete metadata %q: %w", chunkID, err)
	}
	if err := ix.config.Vectors.Delete(chunkID); err != nil {
		return fmt.Errorf("indexer: delete vector %q: %w", chunkID, err)
	}
	if err := ix.config.Deps.DeleteBySource(chunkID); err != nil {
		return fmt.Errorf("indexer: delete deps %q: %w", chunkID, err)
	}
	return nil
}

func dependencyEdges(chunk model.Chunk) []metadatastore.DepEdge {
	edges := make([]metadatastore.DepEdge, 0, len(chunk.Imports)+len(chunk.Calls))
	for _, imp := range chunk.Imports {
		edges = append(edges, metadatastore.DepEdge{SrcChunkID: chunk.ID, DstSymbolName: imp, Kind: metadatastore.DepImport})
	}
	for _, call := range chunk.Calls {
		edges = append(edges, metadatastore.DepEdge{SrcChunkID: chunk.ID, DstSymbolName: call, Kind: metadatastore.DepCall})
	}
	return edges
}

// diffChunks compares existing against fresh by ID (which embeds path,
// line range, and content hash) and returns the IDs to delete and the
// chunks to upsert, so identical spans are never re-embedded.
func diffChunks(existing, fresh []model.Chunk) (toDelete []string, toUpsert []model.Chunk) {
	freshByID := make(map[string]model.Chunk, len(fresh))
	for _, c := range fresh {
		freshByID[c.ID] = c
	}

	existingIDs := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		existingIDs[c.ID] = struct{}{}
		if _, stillPresent := freshByID[c.ID]; !stillPresent {
			toDelete = append(toDelete, c.ID)
		}
	}

	for id, c := range freshByID {
		if _, alreadyStored := existingIDs[id]; !alreadyStored {
			toUpsert = append(toUpsert, c)
		}
	}
	return toDelete, toUpsert
}

func mapSymbolType(kind string) model.SymbolType {
	switch kind {
	case "function":
		return model.SymbolFunction
	case "method":
		return model.SymbolMethod
	case "class":
		return model.SymbolClass
	case "interface":
		return model.SymbolInterface
	case "type":
		return model.SymbolTypeDecl
	case "constant":
		return model.SymbolConstant
	case "variable":
		return model.SymbolTypeDecl
	case "section":
		return model.SymbolModule
	default:
		return model.SymbolBlock
	}
}

func sliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func extOf(path string) string {
	return filepath.Ext(path)
}
