package feed

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var cardTemplate = template.Must(template.New("cards").Parse(
	`{{- range . }}
            <a href="{{ .Link }}" target="_blank" class="essay-card">
                {{ if .Image }}<img src="{{ .Image }}" alt="{{ .Title }}">{{ end }}
                <div class="essay-card-text">
                    <h3>{{ .Title }}</h3>
                    <p>{{ .Description }}</p>
                </div>
            </a>
{{- end }}`))

// RenderCards produces the preview-card HTML for the marker region.
func RenderCards(posts []Post) (string, error) {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, posts); err != nil {
		return "", fmt.Errorf("failed to render essay cards: %w", err)
	}
	return buf.String(), nil
}

// Splice replaces the region between StartMarker and EndMarker in
// content with cards, keeping the markers in place so the page can be
// updated again. Both markers must be present.
func Splice(content, cards string) (string, error) {
	start := strings.Index(content, StartMarker)
	end := strings.Index(content, EndMarker)
	if start == -1 || end == -1 {
		return "", fmt.Errorf("markers %s / %s not found in target page", StartMarker, EndMarker)
	}
	if end < start {
		return "", fmt.Errorf("end marker precedes start marker")
	}

	var b strings.Builder
	b.WriteString(content[:start+len(StartMarker)])
	b.WriteString("\n")
	b.WriteString(cards)
	b.WriteString("\n            ")
	b.WriteString(content[end:])
	return b.String(), nil
}
