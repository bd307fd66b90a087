// Package render turns loosely marked-up plan text into a branded, paginated
// PDF. Lines are classified by Classify into blocks, and a layout stage draws
// the blocks with go-pdf/fpdf.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/hyperjump/omny/pkg/utils"
)

const (
	// DefaultTitle is printed in every page header.
	DefaultTitle = "Omny AI Fitness Plan"
	// DefaultFontFamily maps to the Helvetica core font.
	DefaultFontFamily = "Arial"
	// PlanFilename is the suggested download name for an exported plan.
	PlanFilename = "Omny_Fitness_Plan.pdf"
)

// Options control the page chrome.
type Options struct {
	Title      string
	LogoPath   string
	FontFamily string
}

// DefaultOptions returns options without a brand image.
func DefaultOptions() Options {
	return Options{Title: DefaultTitle, FontFamily: DefaultFontFamily}
}

// Renderer produces PDF documents. It holds no per-document state and is safe
// for concurrent use.
type Renderer struct {
	opts     Options
	logger   *zap.Logger
	compress bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for the renderer.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = utils.OrNop(logger)
	}
}

// New creates a Renderer. Empty option fields take their defaults.
func New(opts Options, options ...Option) *Renderer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.FontFamily == "" {
		opts.FontFamily = DefaultFontFamily
	}
	r := &Renderer{opts: opts, logger: zap.NewNop(), compress: true}
	for _, o := range options {
		o(r)
	}
	return r
}

// Render renders text with the default options.
func Render(text string) ([]byte, error) {
	return New(DefaultOptions()).Render(text)
}

// Render converts text into PDF bytes. Content never causes an error; a missing
// or unreadable brand image is skipped.
func (r *Renderer) Render(text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("")

	l := &layout{
		pdf:    pdf,
		family: r.opts.FontFamily,
		title:  Latin1(r.opts.Title),
		logo:   r.registerLogo(pdf),
	}
	pdf.SetHeaderFunc(l.header)
	pdf.SetFooterFunc(l.footer)
	pdf.AddPage()

	for _, b := range Parse(text) {
		l.draw(b)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// registerLogo loads the brand image into pdf and returns its name, or "" when
// there is no usable image.
func (r *Renderer) registerLogo(pdf *fpdf.Fpdf) string {
	if r.opts.LogoPath == "" {
		return ""
	}
	f, err := os.Open(r.opts.LogoPath)
	if err != nil {
		r.logger.Debug("Brand image unavailable", zap.String("path", r.opts.LogoPath), zap.Error(err))
		return ""
	}
	defer f.Close()

	name := "logo"
	imgType := strings.TrimPrefix(strings.ToLower(filepath.Ext(r.opts.LogoPath)), ".")
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imgType, ReadDpi: true}, f)
	if err := pdf.Error(); err != nil {
		r.logger.Warn("Skipping unreadable brand image", zap.String("path", r.opts.LogoPath), zap.Error(err))
		pdf.ClearError()
		return ""
	}
	return name
}
