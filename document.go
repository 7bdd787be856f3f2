package poesaver

import "context"

// Document is a rendered conversation ready to be persisted.
type Document struct {
	// Title is used to derive a file name when Path is empty.
	Title string

	// Content is the rendered markdown.
	Content string

	// Path is an explicit destination. When empty the writer picks a
	// unique name derived from Title.
	Path string
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.Content == "" {
		return Errorf(EINVALID, "document content required")
	}
	return nil
}

// DocumentWriter persists rendered documents.
type DocumentWriter interface {
	// WriteDocument stores doc and returns the path it was written to.
	WriteDocument(ctx context.Context, doc *Document) (path string, err error)
}

// Previewer renders a markdown document for display instead of storage.
type Previewer interface {
	Preview(markdown string) (string, error)
}

// Exporter writes a markdown document in another format to path.
type Exporter interface {
	Export(markdown string, path string) error
}
