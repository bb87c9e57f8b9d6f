// Package scaffold writes starter markdown files for new posts. The output is
// the front matter format read by folio's content importer.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

// Templates contains the scaffold template files.
//
//go:embed templates
var Templates embed.FS

var postTmpl = template.Must(template.ParseFS(Templates, "templates/post.md.tmpl"))

// ErrExists is returned instead of overwriting a file.
var ErrExists = errors.New("scaffold: file already exists")

// PostData holds the variables of the post template.
type PostData struct {
	Title    string
	Slug     string
	Category string
	Author   string
	Date     time.Time
}

// NewPost writes dir/<slug>.md and returns its path.
func NewPost(dir string, d PostData) (string, error) {
	if d.Slug == "" {
		return "", errors.New("scaffold: slug is required")
	}
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, d.Slug+".md")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", err
	}
	if err := postTmpl.Execute(f, d); err != nil {
		f.Close()
		return "", fmt.Errorf("scaffold: render %s: %w", path, err)
	}
	return path, f.Close()
}
