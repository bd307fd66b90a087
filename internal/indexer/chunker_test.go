package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(20, 5)
	chunks := c.Chunk("doc1", "one two three four five six seven eight nine ten eleven twelve")
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "doc1" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
		}
		if !strings.HasPrefix(ch.ID, "doc1#") {
			t.Errorf("chunk ID %q should be prefixed by the document ID", ch.ID)
		}
	}
}

func TestChunker_SizeBoundsAndWordBreaks(t *testing.T) {
	text := strings.Repeat("protein synthesis peaks after resistance training ", 60)
	c := NewChunker(100, 20)
	pieces := c.Split(text)
	if len(pieces) < 2 {
		t.Fatalf("expected several chunks, got %d", len(pieces))
	}
	words := map[string]bool{"protein": true, "synthesis": true, "peaks": true, "after": true, "resistance": true, "training": true}
	for i, p := range pieces {
		if n := utf8.RuneCountInString(p); n > 100 {
			t.Errorf("chunk %d has %d runes, want <= 100", i, n)
		}
		f := strings.Fields(p)
		if !words[f[0]] || !words[f[len(f)-1]] {
			t.Errorf("chunk %d splits a word: %q", i, p)
		}
	}
}

func TestChunker_Overlap(t *testing.T) {
	text := strings.Repeat("abcd ", 100)
	pieces := NewChunker(50, 20).Split(text)
	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1]
		tail := prev[len(prev)-10:]
		if !strings.Contains(pieces[i], strings.TrimSpace(tail)) {
			t.Errorf("chunk %d does not overlap the end of chunk %d", i, i-1)
		}
	}
}

func TestChunker_PrefersParagraphs(t *testing.T) {
	para1 := strings.Repeat("a", 30)
	para2 := strings.Repeat("b", 30)
	text := para1 + "\n\n" + para2 + " more words here"
	pieces := NewChunker(50, 5).Split(text)
	if len(pieces) < 2 {
		t.Fatalf("got %d chunks", len(pieces))
	}
	if pieces[0] != para1 {
		t.Errorf("first chunk = %q, want the first paragraph", pieces[0])
	}
}

func TestChunker_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	pieces := NewChunker(100, 10).Split(text)
	if len(pieces) != 3 {
		t.Fatalf("got %d chunks, want 3", len(pieces))
	}
	for _, p := range pieces {
		if len(p) > 100 {
			t.Errorf("chunk of %d runes", len(p))
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := NewChunker(5, 1)
	if chunks := c.Chunk("d", "   \n\t  "); len(chunks) != 0 {
		t.Errorf("empty text should give no chunks, got %v", chunks)
	}
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(0, -1)
	if c.size != DefaultChunkSize || c.overlap != DefaultChunkSize/5 {
		t.Errorf("got size %d overlap %d", c.size, c.overlap)
	}
	c = NewChunker(100, 100)
	if c.overlap != 20 {
		t.Errorf("overlap >= size should fall back, got %d", c.overlap)
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "  a  \t b  ", "a b"},
		{"crlf", "line one\r\nline two", "line one\nline two"},
		{"blank lines", "para one\n\n\n\npara two", "para one\n\npara two"},
		{"hyphenation", "muscle pro-\ntein synthesis", "muscle protein synthesis"},
		{"trailing spaces on lines", "a   \n   b", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
