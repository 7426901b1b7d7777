// Package web renders the harness shell templates and the markdown preview
// pipeline the notes editor uses.
package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Renderer manages HTML template rendering with custom functions.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	mu        sync.RWMutex
}

// NewRenderer creates a Renderer by parsing all templates in the given
// directory. base.html is parsed first and combined with each page template.
func NewRenderer(templatesDir string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"formatTime": formatTime,
			"markdown":   RenderMarkdown,
		},
	}

	if err := r.parseTemplates(templatesDir); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return r, nil
}

// Render executes the named page template with the given data. The name is
// the relative path from the templates directory (e.g. "harness/shell.html").
func (r *Renderer) Render(w http.ResponseWriter, templateName string, data interface{}) error {
	r.mu.RLock()
	tmpl, ok := r.templates[templateName]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", templateName)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", templateName, err)
	}

	return nil
}

// parseTemplates parses the base template and all page templates.
func (r *Renderer) parseTemplates(templatesDir string) error {
	// os.Root scopes file access to the templates directory (no traversal).
	root, err := os.OpenRoot(templatesDir)
	if err != nil {
		return fmt.Errorf("failed to open templates directory: %w", err)
	}
	defer root.Close()

	baseFile, err := root.Open("base.html")
	if err != nil {
		return fmt.Errorf("failed to open base template: %w", err)
	}
	baseContent, err := io.ReadAll(baseFile)
	baseFile.Close()
	if err != nil {
		return fmt.Errorf("failed to read base template: %w", err)
	}

	absTemplatesDir, err := filepath.Abs(templatesDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path of templates dir: %w", err)
	}
	basePath := filepath.Join(absTemplatesDir, "base.html")

	err = filepath.WalkDir(absTemplatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == basePath || !strings.HasSuffix(path, ".html") {
			return nil
		}

		relPath, err := filepath.Rel(absTemplatesDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		pageFile, err := root.Open(relPath)
		if err != nil {
			return fmt.Errorf("failed to open template %s: %w", relPath, err)
		}
		pageContent, err := io.ReadAll(pageFile)
		pageFile.Close()
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", relPath, err)
		}

		tmpl := template.New("base").Funcs(r.funcMap)
		tmpl, err = tmpl.Parse(string(baseContent))
		if err != nil {
			return fmt.Errorf("failed to parse base template for %s: %w", relPath, err)
		}
		tmpl, err = tmpl.Parse(string(pageContent))
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", relPath, err)
		}

		r.mu.Lock()
		r.templates[relPath] = tmpl
		r.mu.Unlock()

		return nil
	})
	if err != nil {
		return err
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no templates found in %s", templatesDir)
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04")
}
