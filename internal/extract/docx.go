package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultPath  = "word/document.xml"
	contentTypesPath = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// wParagraph matches a whole <w:p ...>...</w:p> element.
	wParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// wText matches <w:t>text</w:t> with any attributes.
	wText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// overrideTag matches one Override element of [Content_Types].xml.
	overrideTag = regexp.MustCompile(`<Override[^>]*/?>`)
	partNameAttr = regexp.MustCompile(`PartName="([^"]+)"`)
)

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

// extractDOCX returns the text of a .docx, one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	docPath := docxDefaultPath
	if ct, err := readZipFile(zr, contentTypesPath); err == nil {
		if p := mainDocumentPath(string(ct)); p != "" {
			docPath = p
		}
	}
	body, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var lines []string
	for _, para := range wParagraph.FindAllString(string(body), -1) {
		var b strings.Builder
		for _, m := range wText.FindAllStringSubmatch(para, -1) {
			b.WriteString(m[1])
		}
		if line := strings.TrimSpace(xmlEntities.Replace(b.String())); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// mainDocumentPath finds the main document part in [Content_Types].xml,
// independent of attribute order.
func mainDocumentPath(contentTypes string) string {
	for _, tag := range overrideTag.FindAllString(contentTypes, -1) {
		if !strings.Contains(tag, `ContentType="`+docxMainType+`"`) {
			continue
		}
		if m := partNameAttr.FindStringSubmatch(tag); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return ""
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
