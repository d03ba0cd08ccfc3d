// Package bib parses BibTeX publication lists and renders them as an
// HTML fragment for the publications section of a page.
package bib

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"folio/internal/logging"
)

// Entry is one publication parsed from a .bib file.
type Entry struct {
	Key      string
	Type     string // article, inproceedings, ...
	Title    string
	Authors  string
	Year     int
	Journal  string
	Volume   string
	Pages    string
	Eprint   string // arXiv identifier
	DOI      string
	URL      string
	Selected bool
}

// latexReplacements maps the LaTeX escapes that actually occur in the
// source bibliographies to their unicode forms.
var latexReplacements = []struct{ from, to string }{
	{`\r{A}`, "Å"},
	{`\AA{}`, "Å"},
	{`\'e`, "é"},
	{`\v{s}`, "š"},
}

// cleanLatex normalizes LaTeX escapes, strips grouping braces, and
// collapses whitespace.
func cleanLatex(s string) string {
	for _, r := range latexReplacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	return strings.Join(strings.Fields(s), " ")
}

// Parse reads every @entry in a BibTeX document. Entries are returned
// sorted by year descending, then key, so the newest work leads.
func Parse(src string) ([]Entry, error) {
	var entries []Entry

	for i := 0; i < len(src); i++ {
		if src[i] != '@' {
			continue
		}

		brace := strings.IndexByte(src[i:], '{')
		if brace < 0 {
			break
		}
		entryType := strings.ToLower(strings.TrimSpace(src[i+1 : i+brace]))
		if entryType == "comment" || entryType == "preamble" {
			i += brace
			continue
		}

		body, end, err := balancedBlock(src, i+brace)
		if err != nil {
			return nil, fmt.Errorf("entry at offset %d: %w", i, err)
		}

		entry, err := parseEntry(entryType, body)
		if err != nil {
			return nil, fmt.Errorf("entry at offset %d: %w", i, err)
		}
		entries = append(entries, entry)
		i = end
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Year != entries[b].Year {
			return entries[a].Year > entries[b].Year
		}
		return entries[a].Key < entries[b].Key
	})

	logging.Bib("parsed %d bib entries", len(entries))
	return entries, nil
}

// balancedBlock returns the text inside the brace opening at src[open],
// plus the index of the matching close brace.
func balancedBlock(src string, open int) (string, int, error) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[open+1 : i], i, nil
			}
		}
	}
	return "", 0, fmt.Errorf("unbalanced braces")
}

// parseEntry splits "key, field = {value}, ..." into an Entry.
func parseEntry(entryType, body string) (Entry, error) {
	e := Entry{Type: entryType}

	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		return e, fmt.Errorf("missing cite key")
	}
	e.Key = strings.TrimSpace(body[:comma])
	if e.Key == "" {
		return e, fmt.Errorf("empty cite key")
	}

	for _, field := range splitFields(body[comma+1:]) {
		eq := strings.IndexByte(field, '=')
		if eq < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(field[:eq]))
		value := strings.TrimSpace(field[eq+1:])
		value = strings.Trim(value, `{}"`)

		switch name {
		case "title":
			e.Title = cleanLatex(value)
		case "author":
			e.Authors = cleanLatex(value)
		case "year":
			if y, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				e.Year = y
			}
		case "journal", "booktitle":
			e.Journal = cleanLatex(value)
		case "volume":
			e.Volume = strings.TrimSpace(value)
		case "pages":
			e.Pages = strings.ReplaceAll(strings.TrimSpace(value), "--", "–")
		case "eprint":
			e.Eprint = strings.TrimSpace(value)
		case "doi":
			e.DOI = strings.TrimSpace(value)
		case "url":
			e.URL = strings.TrimSpace(value)
		case "selected":
			e.Selected = strings.EqualFold(strings.TrimSpace(value), "true")
		}
	}

	return e, nil
}

// splitFields splits the field list on commas that sit outside braces
// and quotes.
func splitFields(s string) []string {
	var fields []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			inQuote = !inQuote
		case ',':
			if depth == 0 && !inQuote {
				fields = append(fields, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		fields = append(fields, s[start:])
	}
	return fields
}

// Link returns the preferred title link: the arXiv abstract page when an
// eprint is present, then the DOI resolver, then any explicit url field.
// Preprints without a journal carry only an eprint, so arXiv wins.
func (e Entry) Link() string {
	switch {
	case e.Eprint != "":
		return "https://arxiv.org/abs/" + e.Eprint
	case e.DOI != "":
		return "https://doi.org/" + e.DOI
	default:
		return e.URL
	}
}

// Selected filters entries down to those flagged selected, preserving
// order. Feeds the selected_papers section of the about page.
func Selected(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}
