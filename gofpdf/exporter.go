// Package gofpdf exports rendered conversations as PDF files.
package gofpdf

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fwojciec/poesaver"
	"github.com/jung-kurt/gofpdf"
)

// Ensure Exporter implements poesaver.Exporter at compile time.
var _ poesaver.Exporter = (*Exporter)(nil)

const (
	bodyFont        = "Helvetica"
	codeFont        = "Courier"
	bodySize        = 11.0
	codeSize        = 9.0
	lineHeight      = 5.0
	maxHeadingLevel = 3
)

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Exporter converts markdown into a simple A4 PDF layout: headings,
// paragraphs, fenced code blocks and clickable links. It does not attempt
// full markdown layout.
type Exporter struct {
	pageSize string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPageSize sets the page size, such as "A4" or "Letter".
func WithPageSize(size string) Option {
	return func(e *Exporter) {
		e.pageSize = size
	}
}

// NewExporter creates a new Exporter.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{pageSize: "A4"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes markdown as a PDF to path, creating parent directories.
func (e *Exporter) Export(markdown string, path string) error {
	if strings.TrimSpace(markdown) == "" {
		return poesaver.Errorf(poesaver.EINVALID, "nothing to export")
	}
	if path == "" {
		return poesaver.Errorf(poesaver.EINVALID, "export path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", e.pageSize, "")
	// Core fonts are cp1252; characters outside it are dropped.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont(bodyFont, "", bodySize)
	pdf.AddPage()

	inCode := false
	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s := strings.TrimSpace(line)

		if strings.HasPrefix(s, "```") {
			inCode = !inCode
			if inCode {
				pdf.SetFont(codeFont, "", codeSize)
			} else {
				pdf.SetFont(bodyFont, "", bodySize)
				pdf.Ln(2)
			}
			continue
		}
		if inCode {
			pdf.MultiCell(0, lineHeight-1, tr(line), "", "L", false)
			continue
		}

		switch {
		case s == "":
			pdf.Ln(lineHeight)
		case s == "---":
			y := pdf.GetY()
			w, _ := pdf.GetPageSize()
			left, _, right, _ := pdf.GetMargins()
			pdf.Line(left, y+2, w-right, y+2)
			pdf.Ln(lineHeight)
		case strings.HasPrefix(s, "#"):
			level, text := heading(s)
			if text == "" {
				continue
			}
			pdf.SetFont(bodyFont, "B", headingSize(level))
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont(bodyFont, "", bodySize)
		default:
			writeInline(pdf, tr, stripEmphasis(s))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// heading returns the level and text of a markdown heading line.
func heading(s string) (int, string) {
	i := 0
	for i < len(s) && s[i] == '#' {
		i++
	}
	return i, strings.TrimSpace(s[i:])
}

func headingSize(level int) float64 {
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}
	return 18 - 2*float64(level)
}

func stripEmphasis(s string) string {
	return strings.NewReplacer("**", "", "__", "").Replace(s)
}

// writeInline writes a paragraph, turning [text](url) into PDF links.
func writeInline(pdf *gofpdf.Fpdf, tr func(string) string, s string) {
	parts := linkRe.FindAllStringSubmatchIndex(s, -1)
	if len(parts) == 0 {
		pdf.MultiCell(0, lineHeight, tr(s), "", "L", false)
		return
	}
	pos := 0
	for _, m := range parts {
		if m[0] > pos {
			pdf.Write(lineHeight, tr(s[pos:m[0]]))
		}
		text, url := s[m[2]:m[3]], s[m[4]:m[5]]
		if strings.HasPrefix(url, "#") {
			pdf.Write(lineHeight, tr(text))
		} else {
			pdf.WriteLinkString(lineHeight, tr(text), url)
		}
		pos = m[1]
	}
	if pos < len(s) {
		pdf.Write(lineHeight, tr(s[pos:]))
	}
	pdf.Ln(lineHeight + 1)
}
