// Package pdf is the page-drawing primitive used to produce applicant documents.
//
// Coordinates are millimetres from the top-left corner of the page. Text is
// UTF-8; the fpdf implementation translates it to cp1252 for the core fonts.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// PageSize paper format
type PageSize string

const (
	A4     PageSize = "A4"
	Letter PageSize = "Letter"
)

// Font text style. Style is "", "B", "I" or "BI".
type Font struct {
	Family string
	Style  string
	Size   float64
}

var (
	FontTitle   = Font{Family: "Helvetica", Style: "B", Size: 16}
	FontHeading = Font{Family: "Helvetica", Style: "B", Size: 12}
	FontBody    = Font{Family: "Helvetica", Size: 11}
	FontSmall   = Font{Family: "Helvetica", Style: "I", Size: 9}
)

// Canvas draws text on consecutive pages and writes them to a file.
type Canvas interface {
	// Size page width and height in millimetres.
	Size() (width, height float64)
	DrawText(x, y float64, text string, font Font)
	DrawCenteredText(y float64, text string, font Font)
	NewPage()
	// Save writes the document; the target file is replaced atomically.
	Save() error
}

// Renderer creates canvases bound to an output path.
type Renderer interface {
	NewCanvas(path string, size PageSize) (Canvas, error)
}

// FPDFRenderer Renderer backed by go-pdf/fpdf
type FPDFRenderer struct{}

// NewRenderer returns the fpdf backed renderer.
func NewRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

// NewCanvas opens a document with one blank page.
func (r *FPDFRenderer) NewCanvas(path string, size PageSize) (Canvas, error) {
	if path == "" {
		return nil, fmt.Errorf("pdf: empty output path")
	}
	if size == "" {
		size = A4
	}

	f := fpdf.New("P", "mm", string(size), "")
	f.SetAutoPageBreak(false, 0)
	f.AddPage()
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("pdf: init document: %w", err)
	}

	return &fpdfCanvas{
		doc:  f,
		tr:   f.UnicodeTranslatorFromDescriptor(""),
		path: path,
	}, nil
}

type fpdfCanvas struct {
	doc  *fpdf.Fpdf
	tr   func(string) string
	path string
}

func (c *fpdfCanvas) Size() (float64, float64) {
	w, h := c.doc.GetPageSize()
	return w, h
}

func (c *fpdfCanvas) DrawText(x, y float64, text string, font Font) {
	c.doc.SetFont(font.Family, font.Style, font.Size)
	c.doc.Text(x, y, c.tr(text))
}

func (c *fpdfCanvas) DrawCenteredText(y float64, text string, font Font) {
	c.doc.SetFont(font.Family, font.Style, font.Size)
	s := c.tr(text)
	w, _ := c.doc.GetPageSize()
	c.doc.Text((w-c.doc.GetStringWidth(s))/2, y, s)
}

func (c *fpdfCanvas) NewPage() {
	c.doc.AddPage()
}

func (c *fpdfCanvas) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("pdf: create directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := c.doc.OutputFileAndClose(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("pdf: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("pdf: move into place: %w", err)
	}
	return nil
}
