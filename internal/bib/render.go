package bib

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"
)

// fragmentTemplate renders the publications list the way the research
// page embeds it: one row per entry, newest first. The title links to
// the arXiv abstract or DOI per Entry.Link; preprints without a journal
// show arXiv:<id> as their venue.
var fragmentTemplate = template.Must(template.New("publications").Parse(`<div class="publications">
{{- range . }}
  <div class="publication-entry" id="{{ .Key }}">
    <div class="title">{{ with .Link }}<a href="{{ . }}">{{ end }}{{ .Title }}{{ if .Link }}</a>{{ end }}</div>
    <div class="authors">{{ .AuthorsHTML }}</div>
    <div class="venue">{{ if .Journal }}{{ .Journal }}{{ if .Volume }} {{ .Volume }}{{ end }}{{ if .Pages }}, {{ .Pages }}{{ end }}{{ else if .Eprint }}arXiv:{{ .Eprint }}{{ end }}{{ if .Year }} ({{ .Year }}){{ end }}</div>
    {{- if .DOI }}
    <div class="doi"><a href="https://doi.org/{{ .DOI }}">{{ .DOI }}</a></div>
    {{- end }}
  </div>
{{- end }}
</div>
`))

type fragmentEntry struct {
	Entry
	AuthorsHTML template.HTML
}

// RenderFragment produces the publications HTML fragment for the given
// entries. When highlight names the site owner, their name is collapsed
// to highlighted initials in each author list.
func RenderFragment(entries []Entry, highlight string) ([]byte, error) {
	rows := make([]fragmentEntry, len(entries))
	for i, e := range entries {
		rows[i] = fragmentEntry{Entry: e, AuthorsHTML: highlightAuthor(e.Authors, highlight)}
	}

	var buf bytes.Buffer
	if err := fragmentTemplate.Execute(&buf, rows); err != nil {
		return nil, fmt.Errorf("failed to render publications fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// highlightAuthor escapes the author list and replaces the named author
// with a highlight span holding their initials. Both "First Last" and
// "Last, First" orders are matched.
func highlightAuthor(authors, name string) template.HTML {
	escaped := template.HTMLEscapeString(authors)
	if name = strings.TrimSpace(name); name == "" {
		return template.HTML(escaped)
	}

	variants := []string{name}
	if parts := strings.Fields(name); len(parts) == 2 {
		variants = append(variants, parts[1]+", "+parts[0])
	}

	span := `<span class="highlight-author">` + template.HTMLEscapeString(initials(name)) + `</span>`
	for _, v := range variants {
		escaped = strings.ReplaceAll(escaped, template.HTMLEscapeString(v), span)
	}
	return template.HTML(escaped)
}

func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
		b.WriteByte('.')
	}
	return b.String()
}
