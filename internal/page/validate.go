package page

import (
	"fmt"
	"strings"
)

// ValidationError reports one bad or missing front-matter field.
type ValidationError struct {
	Path   string // source file, when known
	Field  string // front-matter key, dotted for nested fields
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors aggregates every field failure of one page so a
// single validate pass reports all of them.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the record invariants: layout, title, and permalink
// are required and non-empty; permalink is a route path starting with
// "/" and free of whitespace; profile.align, when present, is "left" or
// "right". Returns nil or a ValidationErrors value.
func (p *Page) Validate() error {
	var errs ValidationErrors

	add := func(field, reason string) {
		errs = append(errs, &ValidationError{Path: p.SourcePath, Field: field, Reason: reason})
	}

	if strings.TrimSpace(p.Layout) == "" {
		add("layout", "required field is missing or empty")
	}
	if strings.TrimSpace(p.Title) == "" {
		add("title", "required field is missing or empty")
	}

	switch {
	case strings.TrimSpace(p.Permalink) == "":
		add("permalink", "required field is missing or empty")
	case !strings.HasPrefix(p.Permalink, "/"):
		add("permalink", fmt.Sprintf("must start with %q, got %q", "/", p.Permalink))
	case strings.ContainsAny(p.Permalink, " \t"):
		add("permalink", fmt.Sprintf("must not contain whitespace, got %q", p.Permalink))
	case hasDotDotSegment(p.Permalink):
		add("permalink", fmt.Sprintf("must not contain parent directory segments, got %q", p.Permalink))
	}

	if p.Profile != nil && p.Profile.Align != "" {
		if p.Profile.Align != AlignLeft && p.Profile.Align != AlignRight {
			add("profile.align", fmt.Sprintf("must be %q or %q, got %q", AlignLeft, AlignRight, p.Profile.Align))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// hasDotDotSegment reports whether any path segment is "..", which would
// let the rendered output escape the output directory.
func hasDotDotSegment(permalink string) bool {
	for _, seg := range strings.Split(permalink, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
