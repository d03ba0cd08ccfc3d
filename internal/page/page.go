// Package page models a front-matter content page: a YAML metadata block
// delimited by "---" lines, followed by a prose body. It owns parsing,
// defaulting, validation, and re-serialization of the record; rendering
// belongs to internal/site.
package page

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Alignment values accepted for Profile.Align.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

// DefaultAlign is applied when profile.align is absent.
const DefaultAlign = AlignRight

// Profile is the nested portrait block of a page's front matter.
type Profile struct {
	Align         string `yaml:"align,omitempty"`
	Image         string `yaml:"image,omitempty"`
	ImageCircular *bool  `yaml:"image_circular,omitempty"`
	MoreInfo      string `yaml:"more_info,omitempty"`
}

// FrontMatter holds the metadata block of a page. Section toggles and
// image_circular are pointers so that an absent key is distinguishable
// from an explicit false; use the *Enabled accessors on Page to resolve
// the documented defaults.
type FrontMatter struct {
	Layout         string   `yaml:"layout"`
	Title          string   `yaml:"title"`
	Permalink      string   `yaml:"permalink"`
	Subtitle       string   `yaml:"subtitle,omitempty"`
	Description    string   `yaml:"description,omitempty"`
	Profile        *Profile `yaml:"profile,omitempty"`
	News           *bool    `yaml:"news,omitempty"`
	SelectedPapers *bool    `yaml:"selected_papers,omitempty"`
	Social         *bool    `yaml:"social,omitempty"`
}

// Page is one parsed content file: bound front matter plus the raw body.
type Page struct {
	FrontMatter

	// Body is everything after the closing delimiter, verbatim. It is
	// markdown or HTML; the renderer decides by source extension.
	Body string

	// SourcePath is the file this page was read from, when known. Used
	// in error reporting; empty for pages parsed from memory.
	SourcePath string
}

// Parse splits src into front matter and body and binds the metadata.
//
// A file that does not open with a delimiter line is treated as all body
// with empty metadata (it will then fail Validate on the required
// fields). An opening delimiter without a closing one is a parse error.
func Parse(src []byte) (*Page, error) {
	p := &Page{}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() || strings.TrimRight(scanner.Text(), " \t\r") != delimiter {
		p.Body = string(src)
		return p, nil
	}

	var meta bytes.Buffer
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimRight(line, " \t\r") == delimiter {
			closed = true
			break
		}
		meta.WriteString(line)
		meta.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	if !closed {
		return nil, fmt.Errorf("unterminated front matter: missing closing %q", delimiter)
	}

	if err := yaml.Unmarshal(meta.Bytes(), &p.FrontMatter); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}

	var body bytes.Buffer
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}
	p.Body = strings.TrimLeft(body.String(), "\n")

	return p, nil
}

// Marshal re-serializes the page as front matter plus body. For a valid
// page, Parse(Marshal(p)) binds to an equivalent record.
func (p *Page) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter)
	buf.WriteByte('\n')

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&p.FrontMatter); err != nil {
		return nil, fmt.Errorf("failed to marshal front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal front matter: %w", err)
	}

	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	if p.Body != "" {
		buf.WriteByte('\n')
		buf.WriteString(p.Body)
		if !strings.HasSuffix(p.Body, "\n") {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// NewsEnabled resolves the news toggle; absent means false.
func (p *Page) NewsEnabled() bool {
	return p.News != nil && *p.News
}

// SelectedPapersEnabled resolves the selected_papers toggle; absent means false.
func (p *Page) SelectedPapersEnabled() bool {
	return p.SelectedPapers != nil && *p.SelectedPapers
}

// SocialEnabled resolves the social toggle; absent means false.
func (p *Page) SocialEnabled() bool {
	return p.Social != nil && *p.Social
}

// ImageCircular resolves profile.image_circular; absent means false.
func (p *Page) ImageCircular() bool {
	return p.Profile != nil && p.Profile.ImageCircular != nil && *p.Profile.ImageCircular
}

// Align resolves profile.align; absent means DefaultAlign.
func (p *Page) Align() string {
	if p.Profile == nil || p.Profile.Align == "" {
		return DefaultAlign
	}
	return p.Profile.Align
}

// Image returns profile.image, or "" when no profile block is present.
func (p *Page) Image() string {
	if p.Profile == nil {
		return ""
	}
	return p.Profile.Image
}

// MoreInfo returns profile.more_info, or "" when no profile block is present.
func (p *Page) MoreInfo() string {
	if p.Profile == nil {
		return ""
	}
	return p.Profile.MoreInfo
}
