package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/internal/embedding"
	"github.com/hyperjump/omny/internal/extract"
	"github.com/hyperjump/omny/internal/keyword"
	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/sourceid"
	"github.com/hyperjump/omny/internal/storage"
	"github.com/hyperjump/omny/internal/vector"
	"github.com/hyperjump/omny/pkg/utils"
)

// ErrNoDocuments is returned when a knowledge directory has no supported files.
var ErrNoDocuments = errors.New("no supported documents found")

// Stats summarizes one directory ingest.
type Stats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Removed int `json:"removed"`
	Chunks  int `json:"chunks"`
}

// Indexer writes knowledge documents into storage and both indexes.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.Index
	keywordIndex keyword.Index
	chunker      *Chunker
	extractor    *extract.Extractor
	cfg          config.KnowledgeConfig
	logger       *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// New creates an indexer. extractor may be nil, in which case one is built
// from cfg.Extensions.
func New(
	store storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.Index,
	keywordIndex keyword.Index,
	cfg config.KnowledgeConfig,
	extractor *extract.Extractor,
	opts ...Option,
) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor(cfg.Extensions...)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	idx := &Indexer{
		storage:      store,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		chunker:      NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		extractor:    extractor,
		cfg:          cfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocument stores a document, chunks and embeds it, and adds the chunks
// to both indexes. It returns the number of chunks written.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (int, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  Preprocess(input.Content),
		Metadata: input.Metadata,
	}
	chunks := idx.chunker.Chunk(doc.ID, doc.Content)
	if err := idx.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}
	// An empty document is still recorded so an unchanged file is not re-read.
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := idx.storage.BatchCreateChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	entries := make(map[string]keyword.Entry, len(chunks))
	title := keywordTitle(doc.Title)
	for i, ch := range chunks {
		ids[i] = ch.ID
		vectors[i] = ch.Embedding
		entries[ch.ID] = keyword.Entry{Title: title, Content: ch.Content}
	}
	if err := idx.vectorIndex.Add(ctx, ids, vectors); err != nil {
		return 0, fmt.Errorf("failed to index vectors: %w", err)
	}
	if err := idx.keywordIndex.IndexBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to index keywords: %w", err)
	}
	return len(chunks), nil
}

// embedChunks embeds chunks in batches of cfg.BatchSize, at most cfg.Workers
// batches in flight.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.DocumentChunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.cfg.Workers)
	for start := 0; start < len(chunks); start += idx.cfg.BatchSize {
		batch := chunks[start:min(start+idx.cfg.BatchSize, len(chunks))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, ch := range batch {
				texts[i] = ch.Content
			}
			vecs, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to generate embeddings: %w", err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vecs[i]
			}
			return nil
		})
	}
	return g.Wait()
}

// keywordTitle turns a file name into words the analyzer can match, so
// "protein_intake-guide.pdf" is searchable as "protein intake guide".
func keywordTitle(title string) string {
	title = strings.TrimSuffix(title, filepath.Ext(title))
	return strings.NewReplacer("_", " ", "-", " ").Replace(title)
}

// IndexFile extracts and indexes one file. The document ID is derived from the
// absolute path so re-ingesting replaces the same document. A file whose
// mtime and size match the stored record is skipped and reported as false.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	if !idx.extractor.Supports(absPath) {
		return false, fmt.Errorf("%s: %w", filepath.Base(absPath), extract.ErrUnsupported)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := sourceid.Document(absPath)
	src := models.SourceOf(absPath, info)
	if idx.unchanged(ctx, docID, src) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return false, nil
	}
	text, err := idx.extractor.Extract(absPath)
	if err != nil {
		return false, fmt.Errorf("extract content: %w", err)
	}
	if err := idx.DeleteDocument(ctx, docID); err != nil {
		return false, err
	}
	n, err := idx.IndexDocument(ctx, &models.DocumentInput{
		ID:      docID,
		Title:   filepath.Base(absPath),
		Content: text,
		Metadata: src.Metadata(),
	})
	if err != nil {
		return false, err
	}
	if n == 0 {
		idx.logger.Warn("no text extracted", zap.String("path", absPath))
	}
	idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.String("doc_id", docID), zap.Int("chunks", n))
	return true, nil
}

func (idx *Indexer) unchanged(ctx context.Context, docID string, src models.Source) bool {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil {
		return false
	}
	stored, ok := doc.Source()
	return ok && stored.Matches(src)
}

// IndexDirectory ingests every supported file under dir (recursively unless
// cfg.Recursive is false), removes documents whose source file is gone, and
// saves the vector index. A file that fails to extract or embed is logged and
// counted; the walk continues.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string) (Stats, error) {
	var stats Stats
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return stats, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return stats, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("not a directory: %s", absDir)
	}

	seen := make(map[string]struct{})
	recursive := idx.cfg.RecursiveOrDefault()
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !idx.extractor.Supports(path) {
			return nil
		}
		seen[sourceid.Document(path)] = struct{}{}
		indexed, err := idx.IndexFile(ctx, path)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			idx.logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
		case indexed:
			stats.Indexed++
		default:
			stats.Skipped++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if len(seen) == 0 {
		return stats, fmt.Errorf("%s: %w", absDir, ErrNoDocuments)
	}

	removed, err := idx.prune(ctx, absDir, seen)
	stats.Removed = removed
	if err != nil {
		return stats, err
	}
	if n, err := idx.storage.CountChunks(ctx); err == nil {
		stats.Chunks = int(n)
	}
	if err := idx.Save(); err != nil {
		return stats, err
	}
	return stats, nil
}

// prune deletes documents that came from a file under dir that no longer exists.
func (idx *Indexer) prune(ctx context.Context, dir string, seen map[string]struct{}) (int, error) {
	const page = 200
	var stale []string
	for offset := 0; ; offset += page {
		docs, err := idx.storage.ListDocuments(ctx, offset, page)
		if err != nil {
			return 0, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			src, ok := doc.Source()
			if !ok || !sourceid.IsDocument(doc.ID) || !src.Under(dir) {
				continue
			}
			if _, ok := seen[doc.ID]; !ok {
				stale = append(stale, doc.ID)
			}
		}
		if len(docs) < page {
			break
		}
	}
	for _, id := range stale {
		if err := idx.DeleteDocument(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// RemoveFile deletes the document indexed from path, if any.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.DeleteDocument(ctx, sourceid.Document(absPath))
}

// DeleteDocument removes a document and its chunks from storage and both
// indexes. Deleting an unknown ID is not an error.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	chunks, err := idx.storage.GetChunksByDocumentID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(chunks) > 0 {
		chunkIDs := make([]string, len(chunks))
		for i, ch := range chunks {
			chunkIDs[i] = ch.ID
		}
		if err := idx.keywordIndex.Delete(ctx, chunkIDs); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
		if err := idx.vectorIndex.Remove(ctx, chunkIDs); err != nil {
			return fmt.Errorf("failed to delete from vector index: %w", err)
		}
		if err := idx.storage.DeleteChunksByDocumentID(ctx, id); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("indexer document deleted", zap.String("id", id), zap.Int("chunks", len(chunks)))
	return nil
}

// Save persists the vector index to the configured path.
func (idx *Indexer) Save() error {
	if err := idx.vectorIndex.Save(idx.cfg.VectorIndexPath); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	return nil
}
