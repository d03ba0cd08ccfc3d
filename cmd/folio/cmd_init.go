package main

import (
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/config"

	"github.com/spf13/cobra"
)

const sampleAboutPage = `---
layout: about
title: about
permalink: /
subtitle: Your one-line descriptor

profile:
  align: right
  image: prof_pic.jpg
  image_circular: false
  more_info: >
    <p>Your department</p>
    <p>Your city</p>

news: false
selected_papers: false
social: false
---

Write your biography here. This body is markdown; links and *emphasis*
work the usual way.
`

// initCmd scaffolds a new site in the current root.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a folio site (config plus a sample about page)",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := config.DefaultPath(siteRoot)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", cfgPath)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}

	contentDir := filepath.Join(siteRoot, cfg.Site.ContentDir)
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		return err
	}
	for _, dir := range []string{
		filepath.Join(siteRoot, cfg.Site.AssetsDir, "img"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	aboutPath := filepath.Join(contentDir, "about.md")
	if _, err := os.Stat(aboutPath); os.IsNotExist(err) {
		if err := os.WriteFile(aboutPath, []byte(sampleAboutPage), 0644); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", successStyle.Render("created"), aboutPath)
	}

	fmt.Printf("%s %s\n", successStyle.Render("created"), cfgPath)
	fmt.Println(mutedStyle.Render("next: edit the about page, then run `folio build`"))
	return nil
}
