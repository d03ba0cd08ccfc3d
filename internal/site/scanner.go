// Package site scans a content directory into page records, renders them
// through layout templates, and builds the output tree.
package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"folio/internal/logging"
	"folio/internal/page"
)

// pageExtensions are the file types treated as content pages.
var pageExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
}

// ScanResult is the outcome of one content-directory scan.
type ScanResult struct {
	// Pages that parsed and validated, keyed in file order.
	Pages []*page.Page

	// Invalid collects per-file parse and validation failures. A scan
	// with invalid pages is still usable: the valid pages can build.
	Invalid []error
}

// Scan walks contentDir, parses every page file, validates each record,
// and enforces site-wide permalink uniqueness.
func Scan(contentDir string) (*ScanResult, error) {
	timer := logging.StartTimer(logging.CategoryContent, "content scan")
	defer timer.Stop()

	result := &ScanResult{}
	seen := map[string]string{} // permalink -> source path

	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// Underscore and dot directories are includes/internals, not pages.
			if path != contentDir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !pageExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		rel, relErr := filepath.Rel(contentDir, path)
		if relErr != nil {
			rel = path
		}

		src, readErr := os.ReadFile(path)
		if readErr != nil {
			result.Invalid = append(result.Invalid, fmt.Errorf("%s: %w", rel, readErr))
			return nil
		}

		p, parseErr := page.Parse(src)
		if parseErr != nil {
			result.Invalid = append(result.Invalid, fmt.Errorf("%s: %w", rel, parseErr))
			return nil
		}
		p.SourcePath = rel

		if vErr := p.Validate(); vErr != nil {
			result.Invalid = append(result.Invalid, vErr)
			return nil
		}

		if prev, dup := seen[p.Permalink]; dup {
			result.Invalid = append(result.Invalid, &page.ValidationError{
				Path:   rel,
				Field:  "permalink",
				Reason: fmt.Sprintf("%q already used by %s", p.Permalink, prev),
			})
			return nil
		}
		seen[p.Permalink] = rel

		result.Pages = append(result.Pages, p)
		logging.ContentDebug("scanned %s -> %s", rel, p.Permalink)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", contentDir, err)
	}

	logging.Content("scan complete: %d pages, %d invalid", len(result.Pages), len(result.Invalid))
	return result, nil
}

// OutputPath maps a permalink to a file path under outputDir.
// "/" becomes index.html; "/cv/" becomes cv/index.html.
func OutputPath(outputDir, permalink string) string {
	trimmed := strings.Trim(permalink, "/")
	if trimmed == "" {
		return filepath.Join(outputDir, "index.html")
	}
	if strings.HasSuffix(permalink, ".html") {
		return filepath.Join(outputDir, filepath.FromSlash(trimmed))
	}
	return filepath.Join(outputDir, filepath.FromSlash(trimmed), "index.html")
}
