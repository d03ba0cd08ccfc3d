package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"folio/internal/feed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var essaysDryRun bool

// essaysCmd refreshes the essay preview cards from the configured feed.
var essaysCmd = &cobra.Command{
	Use:   "essays",
	Short: "Update the essays page from the configured RSS feed",
	Long: `Fetches the configured RSS feed, resolves a thumbnail for each post
from its og:image tag, and splices the preview cards into the marker
region of the essays page.`,
	RunE: runEssays,
}

func init() {
	essaysCmd.Flags().BoolVar(&essaysDryRun, "dry-run", false, "print the cards instead of rewriting the page")
}

func runEssays(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Feed.URL == "" {
		return fmt.Errorf("feed.url is not configured (set it in %s)", ".folio/config.yaml")
	}

	timeout, err := time.ParseDuration(cfg.Feed.Timeout)
	if err != nil {
		return fmt.Errorf("invalid feed.timeout %q: %w", cfg.Feed.Timeout, err)
	}
	delay, err := time.ParseDuration(cfg.Feed.FetchDelay)
	if err != nil {
		return fmt.Errorf("invalid feed.fetch_delay %q: %w", cfg.Feed.FetchDelay, err)
	}

	fetcher := &feed.Fetcher{
		Client:       &http.Client{Timeout: timeout},
		UserAgent:    cfg.Feed.UserAgent,
		ThumbnailCDN: cfg.Feed.ThumbnailCDN,
		FetchDelay:   delay,
	}

	posts, err := fetcher.FetchPosts(cmd.Context(), cfg.Feed.URL)
	if err != nil {
		return err
	}
	logger.Info("feed fetched", zap.String("url", cfg.Feed.URL), zap.Int("posts", len(posts)))

	fetcher.ResolveImages(cmd.Context(), posts)

	cards, err := feed.RenderCards(posts)
	if err != nil {
		return err
	}

	if essaysDryRun {
		fmt.Println(cards)
		return nil
	}

	targetPath := filepath.Join(siteRoot, cfg.Site.ContentDir, cfg.Feed.TargetPage)
	content, err := os.ReadFile(targetPath)
	if err != nil {
		return fmt.Errorf("failed to read target page %s: %w", targetPath, err)
	}

	updated, err := feed.Splice(string(content), cards)
	if err != nil {
		return err
	}

	if err := os.WriteFile(targetPath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", targetPath, err)
	}

	fmt.Printf("%s %d essay card(s) -> %s\n", successStyle.Render("✓"), len(posts), targetPath)
	return nil
}
