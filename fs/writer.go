// Package fs provides file-based storage for rendered conversations.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/poesaver"
)

// Extension is appended to generated file names.
const Extension = ".md"

// maxNameSuffix bounds the counter appended to make a name unique.
const maxNameSuffix = 9999

// UniquePath returns a path in dir for a file named after title that does
// not exist yet, adding "_1", "_2", ... to the sanitized name as needed.
// dir is created if missing.
func UniquePath(dir, title, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	base := SanitizeFilename(title)
	for n := 0; n <= maxNameSuffix; n++ {
		name := base + ext
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", poesaver.Errorf(poesaver.ECONFLICT, "cannot generate unique file name for %q", title)
}

// Ensure Writer implements poesaver.DocumentWriter at compile time.
var _ poesaver.DocumentWriter = (*Writer)(nil)

// Writer writes documents as markdown files to a directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteDocument writes a document to disk. Documents without an explicit
// path get a unique name in the base directory derived from their title.
// The file is written to a temporary sibling and renamed into place, so a
// reader never sees a partial document.
func (w *Writer) WriteDocument(ctx context.Context, doc *poesaver.Document) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := doc.Path
	if path == "" {
		var err error
		if path, err = UniquePath(w.baseDir, doc.Title, Extension); err != nil {
			return "", err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := WriteFileAtomic(path, []byte(doc.Content)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it over path.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
