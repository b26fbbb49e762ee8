package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
)

//go:embed templates
var templateFS embed.FS

// Renderer turns a named template and its variables into a string.
type Renderer interface {
	Render(name string, vars map[string]interface{}) (string, error)
}

// TemplateRenderer renders html/template files from an fs.FS. Templates are
// parsed on first use and kept for the life of the renderer.
type TemplateRenderer struct {
	fsys fs.FS

	mu     sync.RWMutex
	parsed map[string]*template.Template
}

// NewTemplateRenderer renders the templates shipped with the binary.
func NewTemplateRenderer() *TemplateRenderer {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return NewTemplateRendererFS(sub)
}

func NewTemplateRendererFS(fsys fs.FS) *TemplateRenderer {
	return &TemplateRenderer{
		fsys:   fsys,
		parsed: make(map[string]*template.Template),
	}
}

func (r *TemplateRenderer) Render(name string, vars map[string]interface{}) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) lookup(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.parsed[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New(path.Base(name)).Option("missingkey=zero").ParseFS(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	r.mu.Lock()
	r.parsed[name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}
