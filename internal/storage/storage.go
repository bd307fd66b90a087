// Package storage persists knowledge-base documents and their chunks.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/omny/internal/models"
)

// ErrNotFound is returned when a document or chunk does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines knowledge document and chunk persistence.
type Storage interface {
	// Documents
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Chunks
	BatchCreateChunks(ctx context.Context, chunks []*models.DocumentChunk) error
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.DocumentChunk, error)
	// GetChunks returns the chunks with the given IDs in the order requested; unknown IDs are skipped.
	GetChunks(ctx context.Context, ids []string) ([]*models.DocumentChunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
