package main

import (
	"fmt"
	"path/filepath"
	"time"

	"folio/internal/site"
	"folio/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var incremental bool

// buildCmd renders the whole site into the output directory.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render all content pages into the output directory",
	Long: `Scans the content directory, validates every page record, and renders
the valid pages through their layouts. With --incremental, pages whose
content hash matches the build index are skipped.`,
	RunE: runBuild,
}

// validateCmd checks page records without writing any output.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the front matter of every content page",
	RunE:  runValidate,
}

// buildsCmd lists recent build runs from the build index.
var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "Show recent build history",
	RunE:  runBuilds,
}

func init() {
	buildCmd.Flags().BoolVar(&incremental, "incremental", false, "skip pages unchanged since the last build")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(filepath.Join(siteRoot, cfg.Build.DatabasePath))
	if err != nil {
		return err
	}
	defer st.Close()

	builder, err := site.NewBuilder(siteRoot, cfg, st)
	if err != nil {
		return err
	}

	// Flag wins when given; config default otherwise.
	inc := cfg.Build.Incremental
	if cmd.Flags().Changed("incremental") {
		inc = incremental
	}

	summary, err := builder.Build(cmd.Context(), inc)
	if err != nil {
		return err
	}
	logger.Info("build finished",
		zap.String("build_id", summary.ID),
		zap.Int("built", summary.Built),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration))

	printSummary(summary)

	if summary.Failed > 0 || len(summary.Invalid) > 0 {
		return fmt.Errorf("build completed with %d failed and %d invalid page(s)",
			summary.Failed, len(summary.Invalid))
	}
	return nil
}

func printSummary(summary *site.BuildSummary) {
	fmt.Println(headerStyle.Render("Build " + summary.ID[:8]))
	fmt.Printf("  %s %d built, %d skipped in %v\n",
		successStyle.Render("✓"), summary.Built, summary.Skipped, summary.Duration.Round(time.Millisecond))

	for _, w := range summary.Warnings {
		fmt.Println("  " + warningStyle.Render("warning: ") + w)
	}
	for _, e := range summary.Invalid {
		fmt.Println("  " + errorStyle.Render("invalid: ") + e.Error())
	}
	if summary.Failed > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("%d page(s) failed to render", summary.Failed)))
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := site.Scan(filepath.Join(siteRoot, cfg.Site.ContentDir))
	if err != nil {
		return err
	}

	fmt.Printf("%d page(s) valid\n", len(res.Pages))
	for _, p := range res.Pages {
		fmt.Printf("  %s %s %s\n", successStyle.Render("✓"), p.SourcePath, mutedStyle.Render(p.Permalink))
	}

	if len(res.Invalid) == 0 {
		return nil
	}
	for _, e := range res.Invalid {
		fmt.Println("  " + errorStyle.Render("✗ ") + e.Error())
	}
	return fmt.Errorf("%d invalid page(s)", len(res.Invalid))
}

func runBuilds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(filepath.Join(siteRoot, cfg.Build.DatabasePath))
	if err != nil {
		return err
	}
	defer st.Close()

	builds, err := st.RecentBuilds(10)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println(mutedStyle.Render("no builds recorded yet"))
		return nil
	}

	fmt.Println(headerStyle.Render("Recent builds"))
	for _, b := range builds {
		fmt.Printf("  %s  %s  %d built, %d skipped, %d failed\n",
			b.ID[:8], b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			b.Built, b.Skipped, b.Failed)
	}
	return nil
}
