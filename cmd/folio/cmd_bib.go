package main

import (
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/bib"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bibSelectedOnly bool
	bibOutPath      string
)

// bibCmd converts a BibTeX file into the publications HTML fragment.
var bibCmd = &cobra.Command{
	Use:   "bib [papers.bib]",
	Short: "Convert a BibTeX file into the publications HTML fragment",
	Long: `Parses a BibTeX publications list, cleans up LaTeX escapes, sorts the
entries newest first, and writes the publications HTML fragment used by
the research page. With --selected, only entries flagged selected are
kept, which is what the about page's selected_papers section embeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBib,
}

func init() {
	bibCmd.Flags().BoolVar(&bibSelectedOnly, "selected", false, "only include entries flagged selected")
	bibCmd.Flags().StringVarP(&bibOutPath, "out", "o", "", "fragment output path (defaults to bib.fragment_path)")
}

func runBib(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bibPath := filepath.Join(siteRoot, cfg.Bib.Path)
	if len(args) == 1 {
		bibPath = args[0]
	}

	src, err := os.ReadFile(bibPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", bibPath, err)
	}

	entries, err := bib.Parse(string(src))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", bibPath, err)
	}
	total := len(entries)
	if bibSelectedOnly {
		entries = bib.Selected(entries)
	}

	fragment, err := bib.RenderFragment(entries, cfg.Bib.HighlightAuthor)
	if err != nil {
		return err
	}

	outPath := bibOutPath
	if outPath == "" {
		outPath = filepath.Join(siteRoot, cfg.Bib.FragmentPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, fragment, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	logger.Info("publications fragment written",
		zap.String("path", outPath),
		zap.Int("entries", len(entries)),
		zap.Int("parsed", total))
	fmt.Printf("%s %d of %d entries -> %s\n", successStyle.Render("✓"), len(entries), total, outPath)
	return nil
}
