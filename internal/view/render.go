package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

// StaticFS holds the page stylesheet and the signal-bridge script.
//
//go:embed static/*
var staticFS embed.FS

const (
	PageTemplate      = "page.html"
	BackToTopTemplate = "back-to-top.html"
)

var funcs = template.FuncMap{
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// Templates parses every embedded template. The result is shared by the gin
// renderer and the static exporter.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// MustTemplates is Templates for process startup.
func MustTemplates() *template.Template {
	t, err := Templates()
	if err != nil {
		panic(err)
	}
	return t
}

// Static returns the static asset tree rooted at its directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Render writes the full page.
func Render(w io.Writer, t *template.Template, p Page) error {
	if err := t.ExecuteTemplate(w, PageTemplate, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
