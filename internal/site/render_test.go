package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePage(t *testing.T, src, sourcePath string) *page.Page {
	t.Helper()
	p, err := page.Parse([]byte(src))
	require.NoError(t, err)
	p.SourcePath = sourcePath
	require.NoError(t, p.Validate())
	return p
}

func TestRender_AboutScenario(t *testing.T) {
	// layout: about, permalink: /, subtitle given, social: false =>
	// the subtitle must appear verbatim and social icons must be absent.
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, `---
layout: about
title: about
permalink: /
subtitle: Theoretical physics
social: false
---
Welcome.
`, "about.md")

	out, err := r.Render(p)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "Theoretical physics")
	assert.NotContains(t, html, "contact-icons")
	assert.Contains(t, html, "<p>Welcome.</p>")
}

func TestRender_SocialEnabled(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, "---\nlayout: about\ntitle: t\npermalink: /\nsocial: true\n---\n", "about.md")
	out, err := r.Render(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), "contact-icons")
}

func TestRender_ImageCircularDefault(t *testing.T) {
	// image_circular omitted: the documented default (false) applies and
	// rendering must not fail.
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, `---
layout: about
title: t
permalink: /
profile:
  image: prof_pic.jpg
---
`, "about.md")

	out, err := r.Render(p)
	require.NoError(t, err)
	html := string(out)
	assert.NotContains(t, html, "rounded-circle")
	assert.Contains(t, html, "prof_pic.jpg")
	assert.Contains(t, html, "float-right") // align defaults to right
}

func TestRender_MoreInfoIsRawHTML(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, `---
layout: about
title: t
permalink: /
profile:
  image: prof_pic.jpg
  more_info: "<p>Department of Physics</p>"
---
`, "about.md")

	out, err := r.Render(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<p>Department of Physics</p>")
}

func TestRender_HTMLBodyPassthrough(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, "---\nlayout: page\ntitle: essays\npermalink: /essays.html\n---\n<div class=\"essays\">cards</div>\n", "essays.html")
	out, err := r.Render(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<div class="essays">cards</div>`)
}

func TestRender_UnknownLayout(t *testing.T) {
	r, err := NewRenderer("", "")
	require.NoError(t, err)

	p := parsePage(t, "---\nlayout: missing\ntitle: t\npermalink: /\n---\n", "x.md")
	_, err = r.Render(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown layout "missing"`)
}

func TestRender_SiteLayoutOverride(t *testing.T) {
	layoutsDir := t.TempDir()
	custom := `<html><body data-layout="custom">{{ .Page.Title }}</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(layoutsDir, "about.html"), []byte(custom), 0644))

	r, err := NewRenderer(layoutsDir, "")
	require.NoError(t, err)

	p := parsePage(t, "---\nlayout: about\ntitle: override me\npermalink: /\n---\n", "about.md")
	out, err := r.Render(p)
	require.NoError(t, err)

	if !strings.Contains(string(out), `data-layout="custom"`) {
		t.Errorf("expected site layout to win, got:\n%s", out)
	}
}
