package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"text", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"windows-1252", []byte("5\x80 per kg, caf\xe9"), ".txt", "5€ per kg, café"},
		{"bom", []byte("\xef\xbb\xbfProtein"), ".md", "Protein"},
		{"upper ext", []byte("x"), ".TXT", "x"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Food")
	f.SetCellValue("Sheet1", "B1", "Protein")
	f.SetCellValue("Sheet1", "A3", "Chicken")
	f.SetCellValue("Sheet1", "B3", "31")
	f.NewSheet("Grains")
	f.SetCellValue("Grains", "A1", "Oats")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Food\tProtein\nChicken\t31\n\nGrains\nOats"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func docxBytes(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	return buf.Bytes()
}

const docxBody = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p w:rsidR="00AB"><w:r><w:t>Warm up for </w:t></w:r><w:r><w:t xml:space="preserve">10 minutes</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Sets &amp; reps</w:t></w:r></w:p>` +
	`<w:p/>` +
	`</w:body></w:document>`

func TestExtractBytes_docx(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(docxBytes(map[string]string{"word/document.xml": docxBody}), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if want := "Warm up for 10 minutes\nSets & reps"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + docxMainType + `"/>`},
		{"content type first", `<Override ContentType="` + docxMainType + `" PartName="/word/document2.xml"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := docxBytes(map[string]string{
				contentTypesPath:     `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` + tt.override + `</Types>`,
				"word/document2.xml": docxBody,
			})
			got, err := NewExtractor().ExtractBytes(content, ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "Warm up for 10 minutes\nSets & reps" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip content")
	}
	if _, err := e.ExtractBytes(docxBytes(map[string]string{"other.xml": "x"}), ".docx"); err == nil {
		t.Error("expected error when document part is missing")
	}
}

func TestExtractBytes_pdf(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "Creatine")
	pdf.AddPage()
	pdf.Cell(40, 10, "Hydration")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".pdf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !bytes.Contains([]byte(got), []byte("Creatine")) || !bytes.Contains([]byte(got), []byte("Hydration")) {
		t.Errorf("got %q", got)
	}
}

func TestExtractor_Unsupported(t *testing.T) {
	e := NewExtractor(".md")
	if e.Supports("guide.pdf") {
		t.Error("pdf should not be supported when only .md is allowed")
	}
	if !e.Supports("notes.MD") {
		t.Error("extension match should ignore case")
	}
	if _, err := e.ExtractBytes([]byte("x"), ".pdf"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
	if _, err := NewExtractor().ExtractBytes([]byte("x"), ".pptx"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("pptx: got %v, want ErrUnsupported", err)
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
	if _, err := e.Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := e.Extract(filepath.Join(dir, "image.png")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}
