package brain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/aryal0/secondbrain/internal/knowledge"
	"github.com/aryal0/secondbrain/internal/llm"
	"github.com/aryal0/secondbrain/internal/log"
	"github.com/aryal0/secondbrain/internal/pipeline"
)

// KnowledgeStore is the store capability the engine needs, defined here
// so tests can substitute an in-memory implementation.
type KnowledgeStore interface {
	Add(ctx context.Context, docs []knowledge.Document) error
	Rebuild(ctx context.Context, docs []knowledge.Document) error
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	Count(ctx context.Context) (int, error)
}

// StoreFactory builds the identity-scoped store for an identity key.
type StoreFactory func(identity string) KnowledgeStore

// Summarizer produces the structured rendition of raw text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Config holds the engine's tunables.
type Config struct {
	ChunkSize    int    // chunker max size, default 1200
	ChunkOverlap int    // chunker overlap, default 150
	TopK         int    // retrieval depth for Ask, default 6
	LockDir      string // directory for per-identity ingest lock files
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	Status      string // "added" or "rebuilt"
	TotalChunks int    // chunks stored for the identity after the call
}

// Statuses reported by Ingest.
const (
	StatusAdded   = "added"
	StatusRebuilt = "rebuilt"
)

// lockRetryDelay is the poll interval while waiting on the ingest file lock.
const lockRetryDelay = 100 * time.Millisecond

// Engine wires the pipeline, classifier and knowledge stores into the
// Ingest and Ask surfaces. Safe for concurrent use across identities;
// writes to one identity are serialized internally.
type Engine struct {
	stores     StoreFactory
	summarizer Summarizer
	classifier *Classifier
	gen        llm.TextGenerator
	cfg        Config
	logger     log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session carries the cached per-identity state: the store plus the
// mutex serializing same-identity writes inside this process.
type session struct {
	mu    sync.Mutex
	store KnowledgeStore
}

// NewEngine creates an Engine. Zero config fields fall back to defaults.
func NewEngine(stores StoreFactory, summarizer Summarizer, classifier *Classifier, gen llm.TextGenerator, cfg Config, logger log.Logger) *Engine {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 150
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 6
	}
	if cfg.LockDir == "" {
		cfg.LockDir = os.TempDir()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{
		stores:     stores,
		summarizer: summarizer,
		classifier: classifier,
		gen:        gen,
		cfg:        cfg,
		logger:     logger,
		sessions:   make(map[string]*session),
	}
}

// IngestOption configures one Ingest call.
type IngestOption func(*ingestConfig)

type ingestConfig struct {
	rebuild    bool
	sourceFile string
}

// WithRebuild makes the ingest destructive: the identity's collection is
// replaced with only this call's chunks. Requires explicit opt-in since
// it discards all previously embedded knowledge.
func WithRebuild() IngestOption {
	return func(c *ingestConfig) { c.rebuild = true }
}

// WithSourceFile records the originating file name in every chunk's
// metadata.
func WithSourceFile(name string) IngestOption {
	return func(c *ingestConfig) { c.sourceFile = name }
}

// Ingest runs rawText through the full pipeline and persists the
// resulting chunks for identity. Additive by default; see WithRebuild.
// The data is durable once Ingest returns nil.
func (e *Engine) Ingest(ctx context.Context, identity, rawText string, opts ...IngestOption) (IngestResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return IngestResult{}, fmt.Errorf("%w: empty ingestion text", ErrInvalidInput)
	}

	var cfg ingestConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sess := e.session(identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	unlock, err := e.acquireIngestLock(ctx, identity)
	if err != nil {
		return IngestResult{}, err
	}
	defer unlock()

	summarized, err := e.summarizer.Summarize(ctx, rawText)
	if err != nil {
		return IngestResult{}, err
	}

	blocks := pipeline.ParseBlocks(summarized)
	docs := make([]pipeline.Document, 0, len(blocks))
	for _, b := range blocks {
		doc := pipeline.ExtractFields(b)
		if cfg.sourceFile != "" {
			doc.Metadata[pipeline.MetaSourceFile] = cfg.sourceFile
		}
		docs = append(docs, doc)
	}
	chunks := pipeline.Rechunk(docs, e.cfg.ChunkSize, e.cfg.ChunkOverlap)

	stored := make([]knowledge.Document, len(chunks))
	now := time.Now().UTC()
	for i, c := range chunks {
		stored[i] = knowledge.Document{
			ID:       uuid.NewString(),
			Content:  c.Content,
			Metadata: c.Metadata,
			CreateAt: now,
		}
	}

	status := StatusAdded
	if cfg.rebuild {
		status = StatusRebuilt
		err = sess.store.Rebuild(ctx, stored)
	} else {
		err = sess.store.Add(ctx, stored)
	}
	if err != nil {
		return IngestResult{}, err
	}

	total, err := sess.store.Count(ctx)
	if err != nil {
		return IngestResult{}, err
	}

	e.logger.Info("ingested text",
		"identity", identity,
		"status", status,
		"blocks", len(blocks),
		"chunks", len(chunks),
		"total_chunks", total,
	)
	return IngestResult{Status: status, TotalChunks: total}, nil
}

// Ask answers question from identity's knowledge collection.
//
// A blank question fails with ErrInvalidInput before any model call.
// When retrieval yields nothing the fixed insufficient-information
// message is returned as a successful answer. Internal failures after
// the input check are recovered into an "Error: ..." reply so the
// conversational caller always receives a string; they are logged, not
// swallowed.
func (e *Engine) Ask(ctx context.Context, identity, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", ErrInvalidInput)
	}

	sess := e.session(identity)

	opts := []knowledge.SearchOption{knowledge.WithTopK(e.cfg.TopK)}
	topic := e.classifyTopic(ctx, question)
	if topic != "" {
		opts = append(opts, knowledge.WithFilter(pipeline.MetaTopic, topic))
	}

	results, err := sess.store.Search(ctx, question, opts...)
	if err != nil {
		e.logger.Error("retrieval failed", "identity", identity, "error", err)
		return fmt.Sprintf("Error: %v", err), nil
	}

	// A filtered search that finds nothing degrades to unfiltered
	// retrieval; a wrong classification must never zero out results.
	if len(results) == 0 && topic != "" {
		results, err = sess.store.Search(ctx, question, knowledge.WithTopK(e.cfg.TopK))
		if err != nil {
			e.logger.Error("retrieval failed", "identity", identity, "error", err)
			return fmt.Sprintf("Error: %v", err), nil
		}
	}
	if len(results) == 0 {
		return noContextMessage, nil
	}

	answer, err := e.gen.Generate(ctx, fmt.Sprintf(answerPrompt, formatDocs(results), question))
	if err != nil {
		e.logger.Error("answer generation failed", "identity", identity, "error", err)
		return fmt.Sprintf("Error: %v", err), nil
	}
	return answer, nil
}

// classifyTopic is fail-open: any classification problem degrades to
// unfiltered retrieval.
func (e *Engine) classifyTopic(ctx context.Context, question string) string {
	if e.classifier == nil {
		return ""
	}
	topic, err := e.classifier.Classify(ctx, question)
	if err != nil {
		e.logger.Warn("classification failed, retrieving unfiltered", "error", err)
		return ""
	}
	return topic
}

// session returns the cached per-identity session, creating it on first
// use.
func (e *Engine) session(identity string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[identity]
	if !ok {
		sess = &session{store: e.stores(identity)}
		e.sessions[identity] = sess
	}
	return sess
}

// acquireIngestLock takes the cross-process file lock for identity's
// collection.
func (e *Engine) acquireIngestLock(ctx context.Context, identity string) (func(), error) {
	path := filepath.Join(e.cfg.LockDir, "secondbrain-"+knowledge.CollectionKey(identity)+".lock")
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire ingest lock for %q: %w", identity, err)
	}
	if !locked {
		return nil, fmt.Errorf("ingest lock for %q not acquired", identity)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			e.logger.Warn("failed to release ingest lock", "path", path, "error", err)
		}
	}, nil
}
