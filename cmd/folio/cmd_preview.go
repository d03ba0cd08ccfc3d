package main

import (
	"errors"
	"fmt"
	"os"

	"folio/internal/page"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// previewCmd renders a single page's body in the terminal.
var previewCmd = &cobra.Command{
	Use:   "preview <page-file>",
	Short: "Render one content page in the terminal",
	Long: `Parses a single page file, prints its bound front-matter fields, and
renders the markdown body for a quick look without building the site.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	p, err := page.Parse(src)
	if err != nil {
		return err
	}
	p.SourcePath = args[0]

	fmt.Println(headerStyle.Render(p.Title))
	if p.Subtitle != "" {
		fmt.Println(mutedStyle.Render(p.Subtitle))
	}
	fmt.Printf("%s %s  %s %s\n\n",
		mutedStyle.Render("layout:"), p.Layout,
		mutedStyle.Render("permalink:"), p.Permalink)

	if vErr := p.Validate(); vErr != nil {
		fmt.Println(warningStyle.Render("front matter has problems:"))
		var errs page.ValidationErrors
		if errors.As(vErr, &errs) {
			for _, ve := range errs {
				fmt.Println("  " + errorStyle.Render("✗ ") + ve.Error())
			}
		} else {
			fmt.Println("  " + errorStyle.Render("✗ ") + vErr.Error())
		}
		fmt.Println()
	}

	rendered, err := glamour.Render(p.Body, "auto")
	if err != nil {
		return fmt.Errorf("failed to render body: %w", err)
	}
	fmt.Print(rendered)
	return nil
}
