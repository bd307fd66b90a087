package render

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres.
const (
	bottomMargin = 15.0
	blankGap     = 5.0
	headerGap    = 25.0
	logoX        = 10.0
	logoY        = 8.0
	logoWidth    = 25.0
	labelWidth   = 90.0
	titleHeight  = 10.0
	lineHeight   = 8.0

	headerSize = 15.0
	titleSize  = 14.0
	bodySize   = 12.0
	footerSize = 8.0
)

// layout carries the drawing state for one document.
type layout struct {
	pdf    *fpdf.Fpdf
	family string
	title  string
	logo   string
}

func (l *layout) header() {
	if l.logo != "" {
		l.pdf.ImageOptions(l.logo, logoX, logoY, logoWidth, 0, false, fpdf.ImageOptions{}, 0, "")
	}
	l.pdf.SetFont(l.family, "B", headerSize)
	l.pdf.Cell(80, 0, "")
	l.pdf.CellFormat(30, titleHeight, l.title, "", 0, "C", false, 0, "")
	l.pdf.Ln(headerGap)
}

func (l *layout) footer() {
	l.pdf.SetY(-bottomMargin)
	l.pdf.SetFont(l.family, "I", footerSize)
	l.pdf.CellFormat(0, titleHeight, fmt.Sprintf("Page %d/{nb}", l.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (l *layout) body() {
	l.pdf.SetFont(l.family, "", bodySize)
}

func (l *layout) draw(b Block) {
	switch b.Kind {
	case Blank:
		l.pdf.Ln(blankGap)
	case Title:
		l.pdf.SetFont(l.family, "B", titleSize)
		l.pdf.CellFormat(0, titleHeight, Latin1(b.Text), "", 1, "", false, 0, "")
		l.body()
	case LabelValue:
		l.pdf.SetFont(l.family, "B", bodySize)
		l.pdf.CellFormat(labelWidth, lineHeight, Latin1(b.Label+":"), "", 0, "", false, 0, "")
		l.body()
		l.pdf.CellFormat(0, lineHeight, Latin1(b.Value), "", 1, "", false, 0, "")
	default:
		l.body()
		l.pdf.MultiCell(0, lineHeight, Latin1(b.Text), "", "", false)
	}
}
