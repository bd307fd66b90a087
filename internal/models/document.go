package models

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Metadata keys recorded for documents ingested from a file.
const (
	MetaSourcePath  = "source_path"
	MetaSourceMtime = "source_mtime"
	MetaSourceSize  = "source_size"
	MetaSourceKind  = "source_kind"
)

// Document is a knowledge source (guideline PDF, nutrition table, notes)
// after text extraction.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// Source reports the file the document was read from, if any.
func (d *Document) Source() (Source, bool) {
	if d == nil || d.Metadata == nil {
		return Source{}, false
	}
	path, _ := d.Metadata[MetaSourcePath].(string)
	if path == "" {
		return Source{}, false
	}
	kind, _ := d.Metadata[MetaSourceKind].(string)
	return Source{
		Path:    path,
		Kind:    kind,
		ModTime: metaInt64(d.Metadata[MetaSourceMtime]),
		Size:    metaInt64(d.Metadata[MetaSourceSize]),
	}, true
}

// DocumentChunk is a window of a document's text; the unit that is embedded
// and retrieved as context.
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is what the indexer needs to add a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Source identifies the file a knowledge document was ingested from. ModTime
// is in Unix nanoseconds.
type Source struct {
	Path    string
	Kind    string
	ModTime int64
	Size    int64
}

// SourceOf describes the file at path with the given stat info.
func SourceOf(path string, info os.FileInfo) Source {
	return Source{
		Path:    path,
		Kind:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
	}
}

// Matches reports whether s and other describe the same file contents by
// path, modification time and size.
func (s Source) Matches(other Source) bool {
	return s.Path == other.Path && s.ModTime == other.ModTime && s.Size == other.Size
}

// Under reports whether the source file lies inside dir.
func (s Source) Under(dir string) bool {
	return strings.HasPrefix(s.Path, dir+string(filepath.Separator))
}

// Metadata encodes s as document metadata. Integers are stored as strings;
// UnixNano does not survive a round trip through a JSON float64.
func (s Source) Metadata() map[string]interface{} {
	return map[string]interface{}{
		MetaSourcePath:  s.Path,
		MetaSourceKind:  s.Kind,
		MetaSourceMtime: strconv.FormatInt(s.ModTime, 10),
		MetaSourceSize:  strconv.FormatInt(s.Size, 10),
	}
}

func metaInt64(v interface{}) int64 {
	switch n := v.(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case float64:
		return int64(n)
	default:
		return 0
	}
}
