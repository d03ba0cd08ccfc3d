package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"folio/internal/logging"
	"folio/internal/page"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

// RenderContext is what a layout template sees.
type RenderContext struct {
	Page    *page.Page
	Content template.HTML // rendered body
	BaseURL string
}

// Renderer turns a page record plus its body into an HTML document using
// the layout named in the record's front matter.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
	baseURL   string
}

// NewRenderer loads the embedded layouts and, when layoutsDir is set,
// overlays site-local layouts on top so a site can override "about"
// or add its own layout names.
func NewRenderer(layoutsDir, baseURL string) (*Renderer, error) {
	funcs := template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}

	tmpl, err := template.New("layouts").Funcs(funcs).ParseFS(defaultLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded layouts: %w", err)
	}

	if layoutsDir != "" {
		local, globErr := filepath.Glob(filepath.Join(layoutsDir, "*.html"))
		if globErr != nil {
			return nil, fmt.Errorf("failed to list layouts in %s: %w", layoutsDir, globErr)
		}
		if len(local) > 0 {
			if tmpl, err = tmpl.ParseFiles(local...); err != nil {
				return nil, fmt.Errorf("failed to parse layouts in %s: %w", layoutsDir, err)
			}
			logging.Render("loaded %d site layouts from %s", len(local), layoutsDir)
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	return &Renderer{templates: tmpl, markdown: md, baseURL: baseURL}, nil
}

// Render produces the full HTML document for one page.
func (r *Renderer) Render(p *page.Page) ([]byte, error) {
	layout := r.templates.Lookup(p.Layout + ".html")
	if layout == nil {
		return nil, fmt.Errorf("unknown layout %q for %s", p.Layout, p.SourcePath)
	}

	content, err := r.renderBody(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	ctx := RenderContext{Page: p, Content: content, BaseURL: r.baseURL}
	if err := layout.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("failed to render %s with layout %q: %w", p.SourcePath, p.Layout, err)
	}
	return buf.Bytes(), nil
}

// renderBody converts the body prose: markdown sources go through
// goldmark, HTML sources pass through verbatim.
func (r *Renderer) renderBody(p *page.Page) (template.HTML, error) {
	ext := strings.ToLower(filepath.Ext(p.SourcePath))
	if ext == ".html" {
		return template.HTML(p.Body), nil
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(p.Body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown body of %s: %w", p.SourcePath, err)
	}
	return template.HTML(buf.String()), nil
}
