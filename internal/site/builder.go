package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"folio/internal/config"
	"folio/internal/logging"
	"folio/internal/page"
	"folio/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BuildSummary reports one build run.
type BuildSummary struct {
	ID       string
	Built    int
	Skipped  int
	Failed   int
	Invalid  []error  // pages that never reached the builder
	Warnings []string // non-fatal findings, e.g. missing profile images
	Duration time.Duration
}

// Builder renders scanned pages into the output directory, consulting
// the build index to skip unchanged pages on incremental runs.
type Builder struct {
	cfg      *config.Config
	root     string
	store    *store.Store
	renderer *Renderer
}

// NewBuilder wires a builder for the site rooted at root.
func NewBuilder(root string, cfg *config.Config, st *store.Store) (*Builder, error) {
	layoutsDir := ""
	if cfg.Site.LayoutsDir != "" {
		layoutsDir = filepath.Join(root, cfg.Site.LayoutsDir)
	}
	renderer, err := NewRenderer(layoutsDir, cfg.Site.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, root: root, store: st, renderer: renderer}, nil
}

// Build scans the content directory and renders every valid page.
// When incremental is true, pages whose content hash matches the build
// index and whose output file still exists are skipped.
func (b *Builder) Build(ctx context.Context, incremental bool) (*BuildSummary, error) {
	start := time.Now()
	summary := &BuildSummary{ID: uuid.NewString()}
	logging.Build("build %s starting (incremental=%v)", summary.ID, incremental)

	contentDir := filepath.Join(b.root, b.cfg.Site.ContentDir)
	outputDir := filepath.Join(b.root, b.cfg.Site.OutputDir)

	scan, err := Scan(contentDir)
	if err != nil {
		return nil, err
	}
	summary.Invalid = scan.Invalid

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Build.Workers)

	for _, p := range scan.Pages {
		p := p
		g.Go(func() error {
			built, warn, buildErr := b.buildPage(gctx, p, contentDir, outputDir, incremental)
			mu.Lock()
			defer mu.Unlock()
			if buildErr != nil {
				summary.Failed++
				summary.Warnings = append(summary.Warnings, buildErr.Error())
				logging.BuildWarn("page %s failed: %v", p.SourcePath, buildErr)
				return nil // one bad page must not cancel the others
			}
			if warn != "" {
				summary.Warnings = append(summary.Warnings, warn)
			}
			if built {
				summary.Built++
			} else {
				summary.Skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)

	if b.store != nil {
		rec := store.BuildRecord{
			ID:         summary.ID,
			StartedAt:  start.UTC(),
			FinishedAt: time.Now().UTC(),
			Built:      summary.Built,
			Skipped:    summary.Skipped,
			Failed:     summary.Failed,
		}
		if err := b.store.RecordBuild(rec); err != nil {
			logging.BuildWarn("failed to record build: %v", err)
		}
	}

	logging.Build("build %s done: %d built, %d skipped, %d failed in %v",
		summary.ID, summary.Built, summary.Skipped, summary.Failed, summary.Duration)
	return summary, nil
}

// buildPage renders one page to disk. Returns built=false when the page
// was skipped by the incremental check.
func (b *Builder) buildPage(ctx context.Context, p *page.Page, contentDir, outputDir string, incremental bool) (built bool, warning string, err error) {
	if err := ctx.Err(); err != nil {
		return false, "", err
	}

	src, err := os.ReadFile(filepath.Join(contentDir, p.SourcePath))
	if err != nil {
		return false, "", fmt.Errorf("failed to reread %s: %w", p.SourcePath, err)
	}
	sum := sha256.Sum256(src)
	hash := hex.EncodeToString(sum[:])

	outPath := OutputPath(outputDir, p.Permalink)

	if incremental && b.store != nil {
		prev, found, hashErr := b.store.HashFor(p.SourcePath)
		if hashErr != nil {
			return false, "", hashErr
		}
		if found && prev == hash {
			if _, statErr := os.Stat(outPath); statErr == nil {
				logging.BuildDebug("skip %s (unchanged)", p.SourcePath)
				return false, "", nil
			}
		}
	}

	warning = b.checkProfileImage(p)

	out, err := b.renderer.Render(p)
	if err != nil {
		return false, "", err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, "", fmt.Errorf("failed to create output dir for %s: %w", p.Permalink, err)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return false, "", fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	if b.store != nil {
		err = b.store.UpsertPage(store.PageRecord{
			SourcePath:  p.SourcePath,
			Permalink:   p.Permalink,
			Title:       p.Title,
			Layout:      p.Layout,
			ContentHash: hash,
		})
		if err != nil {
			return false, "", err
		}
	}

	return true, warning, nil
}

// checkProfileImage warns when profile.image names an asset that does
// not exist. The asset pipeline owns the file, so this is never fatal.
func (b *Builder) checkProfileImage(p *page.Page) string {
	img := p.Image()
	if img == "" || b.cfg.Site.AssetsDir == "" {
		return ""
	}
	imgPath := filepath.Join(b.root, b.cfg.Site.AssetsDir, "img", img)
	if _, err := os.Stat(imgPath); os.IsNotExist(err) {
		return fmt.Sprintf("%s: profile.image %q not found under %s", p.SourcePath, img, b.cfg.Site.AssetsDir)
	}
	return ""
}
