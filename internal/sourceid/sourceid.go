// Package sourceid derives stable identifiers for knowledge sources and their
// chunks, so re-ingesting a file replaces its previous entries in place.
package sourceid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	docPrefix = "src:"
	chunkSep  = "#"
)

// Document returns the ID of the knowledge document read from path. Paths that
// clean to the same value share an ID.
func Document(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return docPrefix + hex.EncodeToString(sum[:12])
}

// Chunk returns the ID of the index-th chunk of docID.
func Chunk(docID string, index int) string {
	return fmt.Sprintf("%s%s%04d", docID, chunkSep, index)
}

// IsDocument reports whether id has the form produced by Document.
func IsDocument(id string) bool {
	return strings.HasPrefix(id, docPrefix) && !strings.Contains(id, chunkSep)
}
