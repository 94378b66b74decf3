// Package web holds the embedded HTML templates and the gin renderer that
// serves them. Every page is parsed together with base.html and the
// includes, so pages can each define their own "content" block.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutFile   = "templates/base.html"
	includesGlob = "templates/includes/*.html"
)

// Renderer implements gin's render.HTMLRender over the embedded pages.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// New parses every page. funcs is merged over the default helpers.
func New(funcs template.FuncMap) (*Renderer, error) {
	fm := DefaultFuncs()
	for k, v := range funcs {
		fm[k] = v
	}

	partials, err := template.New("partials").Funcs(fm).ParseFS(templateFS, includesGlob)
	if err != nil {
		return nil, fmt.Errorf("parse includes: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template), partials: partials}
	err = fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path == layoutFile || strings.HasPrefix(path, "templates/includes/") {
			return err
		}
		t, err := template.New("base.html").Funcs(fm).ParseFS(templateFS, layoutFile, includesGlob, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.pages[strings.TrimPrefix(path, "templates/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance satisfies render.HTMLRender. Unknown names panic so a typo shows
// up in the first test that hits the page.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("web: unknown page %q", name))
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}

// Has reports whether name is a known page.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Fragment renders one of the includes to a string, for the page cache.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2 January 2006") },
		"linebreaks": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
		"mediaURL": func(name string) string {
			if name == "" {
				return ""
			}
			return "/media/" + name
		},
		"safe": func(s string) template.HTML { return template.HTML(s) },
	}
}
