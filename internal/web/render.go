package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPage writes the full widget page.
func (r *Renderer) RenderPage(w io.Writer, view View) error {
	return r.tmpl.ExecuteTemplate(w, "index.html", view)
}

// Transcript renders the message list including the typing indicator.
func (r *Renderer) Transcript(view View) (string, error) {
	return r.execute("transcript", view)
}

// Row renders a single bubble.
func (r *Renderer) Row(row Row) (string, error) {
	return r.execute("row", row)
}

// Typing renders the typing indicator.
func (r *Renderer) Typing() (string, error) {
	return r.execute("typing", nil)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// StaticHandler serves the embedded stylesheet and script.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
