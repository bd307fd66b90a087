// Package extract turns knowledge-base files into plain text for chunking.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions with no extractor.
var ErrUnsupported = errors.New("unsupported file type")

type extractFunc func([]byte) (string, error)

var byExtension = map[string]extractFunc{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractExcel,
	".txt":  extractPlain,
	".md":   extractPlain,
}

// Extractor extracts text from the file types it is configured for.
type Extractor struct {
	allowed map[string]struct{}
}

// NewExtractor returns an Extractor limited to the given extensions
// (with leading dot, any case). No extensions means every supported type.
func NewExtractor(extensions ...string) *Extractor {
	allowed := make(map[string]struct{})
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if _, ok := byExtension[ext]; ok {
			allowed[ext] = struct{}{}
		}
	}
	if len(extensions) == 0 {
		for ext := range byExtension {
			allowed[ext] = struct{}{}
		}
	}
	return &Extractor{allowed: allowed}
}

// Supports reports whether path has an extension this extractor handles.
func (e *Extractor) Supports(path string) bool {
	_, ok := e.allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	if !e.Supports(path) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content according to ext (with leading dot).
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if _, ok := e.allowed[ext]; !ok {
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupported)
	}
	return byExtension[ext](content)
}
