package mock

import (
	"context"

	"github.com/fwojciec/poesaver"
)

var _ poesaver.DocumentWriter = (*DocumentWriter)(nil)

// DocumentWriter is a mock implementation of poesaver.DocumentWriter.
type DocumentWriter struct {
	WriteDocumentFn func(ctx context.Context, doc *poesaver.Document) (string, error)
}

func (w *DocumentWriter) WriteDocument(ctx context.Context, doc *poesaver.Document) (string, error) {
	return w.WriteDocumentFn(ctx, doc)
}

var _ poesaver.Previewer = (*Previewer)(nil)

// Previewer is a mock implementation of poesaver.Previewer.
type Previewer struct {
	PreviewFn func(markdown string) (string, error)
}

func (p *Previewer) Preview(markdown string) (string, error) {
	return p.PreviewFn(markdown)
}

var _ poesaver.Exporter = (*Exporter)(nil)

// Exporter is a mock implementation of poesaver.Exporter.
type Exporter struct {
	ExportFn func(markdown, path string) error
}

func (e *Exporter) Export(markdown, path string) error {
	return e.ExportFn(markdown, path)
}
