// Package engine is the Context Engine façade: the single entry point
// editor integrations use to initialize the index, run a query end to
// end (classify, retrieve, fuse, rank, budget, pack), and tear down.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nilreef/ctxengine/internal/budget"
	"github.com/nilreef/ctxengine/internal/chunker"
	"github.com/nilreef/ctxengine/internal/classifier"
	"github.com/nilreef/ctxengine/internal/embedding"
	"github.com/nilreef/ctxengine/internal/engineconfig"
	"github.com/nilreef/ctxengine/internal/fusion"
	"github.com/nilreef/ctxengine/internal/indexer"
	"github.com/nilreef/ctxengine/internal/metadatastore"
	"github.com/nilreef/ctxengine/internal/model"
	"github.com/nilreef/ctxengine/internal/packer"
	"github.com/nilreef/ctxengine/internal/ranker"
	"github.com/nilreef/ctxengine/internal/retriever"
	"github.com/nilreef/ctxengine/internal/strategy"
	"github.com/nilreef/ctxengine/internal/tokenizer"
	"github.com/nilreef/ctxengine/internal/vectorstore"
)

// Engine is the Context Engine façade. It owns the stores, the
// indexer, and the retrieval/fusion/ranking/packing pipeline. Safe for
// concurrent Query calls once Initialize has returned; Initialize and
// Dispose are not concurrency-safe with each other or with themselves.
type Engine struct {
	cfg    *engineconfig.Config
	logger *zap.Logger

	mu          sync.RWMutex
	initialized bool

	vectors  *vectorstore.Store
	chunks   *metadatastore.ChunkStore
	deps     *metadatastore.DepsStore
	embedder embedding.Provider
	parsers  *chunker.Registry

	ix        *indexer.Indexer
	watcher   *indexer.Watcher
	watchStop context.CancelFunc
	watchDone chan struct{}

	classifier *classifier.Classifier
	tokenizer  tokenizer.Tokenizer

	diagnostics *diagnosticsTracker
}

// New constructs an Engine from cfg. The returned Engine is inert until
// Initialize is called.
func New(cfg *engineconfig.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:         cfg,
		logger:      logger,
		diagnostics: newDiagnosticsTracker(),
		classifier:  classifier.New(classifier.NewLexicalClassifier()),
		tokenizer:   tokenizer.NewCachingTokenizer(tokenizer.NewDefaultTokenizer()),
	}
}

// Initialize opens the stores, reconciles the index header against the
// configured embedding provider, performs an initial workspace scan if
// needed, and starts the file watcher. Idempotent: calling it again
// while already initialized is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	embedder, err := buildEmbedder(e.cfg.Embedding)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	vectors, err := vectorstore.Open(e.cfg.Store.VectorPath)
	if err != nil {
		return fmt.Errorf("%w: open vector store: %v", ErrIndexUnavailable, err)
	}
	chunks, err := metadatastore.OpenChunkStore(e.cfg.Store.MetadataPath)
	if err != nil {
		_ = vectors.Close()
		return fmt.Errorf("%w: open metadata store: %v", ErrIndexUnavailable, err)
	}
	deps, err := metadatastore.OpenDepsStore(e.cfg.Store.DepsPath)
	if err != nil {
		_ = vectors.Close()
		_ = chunks.Close()
		return fmt.Errorf("%w: open deps store: %v", ErrIndexUnavailable, err)
	}

	parsers := chunker.NewRegistry()
	languageOf := func(ext string) (string, bool) {
		p, ok := parsers.For(ext)
		if !ok {
			return "", false
		}
		return p.Language(), true
	}

	reindexRequired, err := indexer.ReconcileHeader(vectors, indexer.ExpectedHeader{
		EmbeddingIdentity: embedder.Identity(),
		Dimensions:        embedder.Dimensions(),
	})
	if err != nil {
		e.logger.Error("header reconciliation failed", zap.Error(err))
	}

	ix := indexer.New(indexer.Config{
		Concurrency: e.cfg.Workspace.Concurrency,
		Parsers:     parsers,
		Embedder:    embedder,
		Chunks:      chunks,
		Deps:        deps,
		Vectors:     vectors,
		LanguageOf:  languageOf,
	})

	if reindexRequired {
		e.logger.Info("embedding identity changed, full reindex required", zap.String("identity", embedder.Identity()))
	}
	if err := ix.IndexWorkspace(ctx, e.cfg.Workspace.RootPath); err != nil {
		e.logger.Warn("initial workspace index encountered errors", zap.Error(err))
	}
	e.diagnostics.recordRebuild("initialize", vectors.Count(), time.Now())

	watcher, err := indexer.NewWatcher(indexer.DefaultWatchConfig(e.cfg.Workspace.RootPath))
	if err != nil {
		e.logger.Warn("file watcher unavailable, changes will not be picked up automatically", zap.Error(err))
	}

	e.vectors = vectors
	e.chunks = chunks
	e.deps = deps
	e.embedder = embedder
	e.parsers = parsers
	e.ix = ix
	e.watcher = watcher
	e.initialized = true

	if watcher != nil {
		e.startWatchLoop()
	}

	return nil
}

// startWatchLoop forwards debounced file events into the indexer for
// as long as the engine stays initialized.
func (e *Engine) startWatchLoop() {
	watchCtx, cancel := context.WithCancel(context.Background())
	e.watchStop = cancel
	e.watchDone = make(chan struct{})

	events, err := e.watcher.Start(watchCtx)
	if err != nil {
		e.logger.Warn("failed to start file watcher", zap.Error(err))
		close(e.watchDone)
		return
	}

	go func() {
		defer close(e.watchDone)
		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				e.handleFileEvent(ev)
			}
		}
	}()
}

func (e *Engine) handleFileEvent(ev *indexer.FileEvent) {
	var err error
	switch ev.Operation {
	case indexer.OpRemove:
		err = e.ix.RemoveFile(ev.Path)
	default:
		err = e.ix.IndexFile(context.Background(), ev.Path, ev.Time.UnixMilli())
	}
	if err != nil {
		e.logger.Warn("failed to apply file change", zap.String("path", ev.Path), zap.Error(err))
		return
	}
	e.diagnostics.recordRebuild("file_change:"+ev.Path, e.vectors.Count(), time.Now())
}

// OnFileChange notifies the engine of a file change the watcher may not
// have observed yet (e.g. an editor-driven save), per the external
// interface's on_file_change hook.
func (e *Engine) OnFileChange(ctx context.Context, path string, operation indexer.FileOperation) error {
	e.mu.RLock()
	initialized := e.initialized
	e.mu.RUnlock()
	if !initialized {
		return ErrNotInitialized
	}

	var err error
	if operation == indexer.OpRemove {
		err = e.ix.RemoveFile(path)
	} else {
		err = e.ix.IndexFile(ctx, path, time.Now().UnixMilli())
	}
	if err != nil {
		return err
	}
	e.diagnostics.recordRebuild("file_change:"+path, e.vectors.Count(), time.Now())
	return nil
}

// indexNowMillis is the "now" reference recency scoring is computed
// against: the moment the index was last known to change, rather than
// the wall clock. Two queries against unchanged store state must score
// recency identically, per the determinism requirement on ContextResult;
// tying "now" to the wall clock would drift the 4th decimal of a recent
// file's score between otherwise-identical calls.
func (e *Engine) indexNowMillis() int64 {
	return e.diagnostics.snapshot().LastRebuildAt.UnixMilli()
}

// Query runs one request through the full pipeline: classify, retrieve
// (concurrently, per method), fuse, rank, allocate budget, and pack.
// Cancellation and deadlines are carried by ctx in the idiomatic Go
// style, rather than as separate request fields.
func (e *Engine) Query(ctx context.Context, req Request) (model.ContextResult, error) {
	e.mu.RLock()
	initialized := e.initialized
	e.mu.RUnlock()
	if !initialized {
		return model.ContextResult{}, ErrNotInitialized
	}
	if req.TokenBudget == 0 {
		return model.ContextResult{}, ErrInvalidBudget
	}

	queryID := uuid.New().String()
	start := time.Now()
	logger := e.logger.With(zap.String("query_id", queryID))

	intent, err := e.resolveIntent(ctx, req)
	if err != nil {
		return model.ContextResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return model.ContextResult{}, classifyContextErr(err)
	}

	plan := strategy.Select(intent)
	candidatesByMethod, retrievalMethods := e.runRetrievers(ctx, req, intent, plan, logger)

	// Fusion, ranking, budgeting, and packing are all in-memory and fast;
	// once retrieval has produced anything, the pipeline runs to
	// completion rather than aborting mid-pack. A deadline that expired
	// during retrieval and left nothing to work with still fails fast.
	if err := ctx.Err(); err != nil && len(retrievalMethods) == 0 {
		return model.ContextResult{}, classifyContextErr(err)
	}

	weightedLists := make([]fusion.WeightedList, 0, len(candidatesByMethod))
	for method, candidates := range candidatesByMethod {
		weightedLists = append(weightedLists, fusion.WeightedList{
			Method:     method,
			Weight:     plan.Weights[method],
			Candidates: candidates,
		})
	}
	fused := fusion.Fuse(weightedLists)

	if len(fused) == 0 {
		return model.ContextResult{
			Items:            nil,
			Intent:           intent,
			TokensUsed:       0,
			RetrievalMethods: retrievalMethods,
		}, nil
	}

	ranked := ranker.Rank(fused, intent, e.indexNowMillis())

	inputTokens := int(e.tokenizer.Count(ctx, e.cfg.Log.TokenizerModel, req.Input).Tokens)
	alloc, err := budget.Allocate(int(req.TokenBudget), inputTokens, intent)
	if err != nil {
		return model.ContextResult{}, ErrInvalidBudget
	}

	items, tokensUsed, _ := packer.Pack(ctx, e.tokenizer, e.cfg.Log.TokenizerModel, ranked, alloc.Context)
	if int(tokensUsed) > alloc.Context {
		logger.Error("packer exceeded its context budget", zap.Int("budget", alloc.Context), zap.Uint32("tokens_used", tokensUsed))
		return model.ContextResult{}, ErrPackingInvariantViolated
	}

	e.diagnostics.recordQuery(retrievalMethods, start, time.Since(start))

	return model.ContextResult{
		Items:            items,
		Intent:           intent,
		TokensUsed:       tokensUsed,
		RetrievalMethods: retrievalMethods,
	}, nil
}

func (e *Engine) resolveIntent(ctx context.Context, req Request) (model.Intent, error) {
	if req.Intent != nil {
		return *req.Intent, nil
	}
	classification, err := e.classifier.Classify(ctx, req.Input)
	if err != nil {
		return model.DefaultIntent, nil
	}
	return classification.Intent, nil
}

// runRetrievers dispatches one goroutine per method in plan.Methods,
// isolating any single retriever's failure as an empty list so the
// others still contribute.
func (e *Engine) runRetrievers(ctx context.Context, req Request, intent model.Intent, plan strategy.Plan, logger *zap.Logger) (map[model.Method][]model.Candidate, []model.Method) {
	results := make(map[model.Method][]model.Candidate, len(plan.Methods))
	var mu sync.Mutex
	var succeeded []model.Method

	query := model.Query{Text: req.Input, Intent: intent}

	g, gctx := errgroup.WithContext(ctx)
	for _, method := range plan.Methods {
		method := method
		r := e.retrieverFor(method)
		if r == nil {
			continue
		}
		g.Go(func() error {
			candidates, err := r.Retrieve(gctx, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("retriever failed, treating as empty", zap.String("method", string(method)), zap.Error(err))
				results[method] = nil
				return nil
			}
			results[method] = candidates
			succeeded = append(succeeded, method)
			return nil
		})
	}
	_ = g.Wait()

	return results, succeeded
}

func (e *Engine) retrieverFor(method model.Method) retriever.Retriever {
	switch method {
	case model.MethodSemantic:
		return &retriever.SemanticRetriever{Embedder: e.embedder, Vectors: e.vectors, Chunks: e.chunks}
	case model.MethodLexical:
		return &retriever.LexicalRetriever{Chunks: e.chunks}
	case model.MethodDependency:
		return &retriever.DependencyRetriever{Chunks: e.chunks, Getter: e.chunks, Graph: e.deps}
	case model.MethodRecentEdits:
		return &retriever.RecentEditsRetriever{Chunks: e.chunks, Now: e.indexNowMillis}
	default:
		return nil
	}
}

// Diagnostics returns a snapshot of index size, last rebuild reason,
// and the most recent query's retrieval methods.
func (e *Engine) Diagnostics() Diagnostics {
	return e.diagnostics.snapshot()
}

// Dispose closes the stores and stops the watcher. Idempotent.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	if e.watchStop != nil {
		e.watchStop()
		<-e.watchDone
	}
	if e.watcher != nil {
		e.watcher.Stop()
	}

	var errs []error
	if e.vectors != nil {
		if err := e.vectors.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.chunks != nil {
		if err := e.chunks.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.deps != nil {
		if err := e.deps.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	e.initialized = false

	if len(errs) > 0 {
		return fmt.Errorf("engine: dispose: %v", errs)
	}
	return nil
}

func buildEmbedder(cfg engineconfig.EmbeddingConfig) (embedding.Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return embedding.NewLocalHashProvider(), nil
	case "openai":
		openaiCfg := embedding.DefaultOpenAIConfig()
		if cfg.Model != "" {
			openaiCfg.Model = cfg.Model
		}
		return embedding.NewOpenAIProvider(openaiCfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func classifyContextErr(err error) error {
	if err == context.DeadlineExceeded {
		return ErrDeadlineExceeded
	}
	return ErrCancelled
}
