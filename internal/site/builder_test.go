package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"folio/internal/config"
	"folio/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSite(t *testing.T) (root string, cfg *config.Config, st *store.Store) {
	t.Helper()
	root = t.TempDir()
	cfg = config.DefaultConfig()

	require.NoError(t, os.MkdirAll(filepath.Join(root, cfg.Site.ContentDir), 0755))

	var err error
	st, err = store.NewStore(filepath.Join(root, cfg.Build.DatabasePath))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return root, cfg, st
}

func TestBuild_WritesOutputs(t *testing.T) {
	root, cfg, st := setupSite(t)
	writePage(t, filepath.Join(root, cfg.Site.ContentDir), "about.md",
		"---\nlayout: about\ntitle: about\npermalink: /\nsubtitle: Theoretical physics\n---\nhello\n")
	writePage(t, filepath.Join(root, cfg.Site.ContentDir), "cv.md",
		"---\nlayout: page\ntitle: cv\npermalink: /cv/\n---\n")

	b, err := NewBuilder(root, cfg, st)
	require.NoError(t, err)

	sum, err := b.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Built)
	assert.Zero(t, sum.Failed)
	assert.NotEmpty(t, sum.ID)

	index, err := os.ReadFile(filepath.Join(root, cfg.Site.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Theoretical physics")

	_, err = os.Stat(filepath.Join(root, cfg.Site.OutputDir, "cv", "index.html"))
	assert.NoError(t, err)

	builds, err := st.RecentBuilds(5)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, 2, builds[0].Built)
}

func TestBuild_IncrementalSkipsUnchanged(t *testing.T) {
	root, cfg, st := setupSite(t)
	contentDir := filepath.Join(root, cfg.Site.ContentDir)
	writePage(t, contentDir, "about.md", "---\nlayout: about\ntitle: a\npermalink: /\n---\nv1\n")

	b, err := NewBuilder(root, cfg, st)
	require.NoError(t, err)

	sum, err := b.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Built)

	// No change: skipped.
	sum, err = b.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Built)
	assert.Equal(t, 1, sum.Skipped)

	// Content change: rebuilt.
	writePage(t, contentDir, "about.md", "---\nlayout: about\ntitle: a\npermalink: /\n---\nv2\n")
	sum, err = b.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Built)

	out, err := os.ReadFile(filepath.Join(root, cfg.Site.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "v2")
}

func TestBuild_MissingOutputForcesRebuild(t *testing.T) {
	root, cfg, st := setupSite(t)
	contentDir := filepath.Join(root, cfg.Site.ContentDir)
	writePage(t, contentDir, "about.md", "---\nlayout: about\ntitle: a\npermalink: /\n---\n")

	b, err := NewBuilder(root, cfg, st)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), true)
	require.NoError(t, err)

	// Output vanished but the hash still matches: must rebuild anyway.
	require.NoError(t, os.Remove(filepath.Join(root, cfg.Site.OutputDir, "index.html")))

	sum, err := b.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Built)
}

func TestBuild_MissingProfileImageWarns(t *testing.T) {
	root, cfg, st := setupSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, cfg.Site.AssetsDir, "img"), 0755))
	writePage(t, filepath.Join(root, cfg.Site.ContentDir), "about.md", `---
layout: about
title: a
permalink: /
profile:
  image: nope.jpg
---
`)

	b, err := NewBuilder(root, cfg, st)
	require.NoError(t, err)

	sum, err := b.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Built) // warning, not failure
	require.Len(t, sum.Warnings, 1)
	assert.Contains(t, sum.Warnings[0], "nope.jpg")
}

func TestBuild_InvalidPagesDoNotBlockValidOnes(t *testing.T) {
	root, cfg, st := setupSite(t)
	contentDir := filepath.Join(root, cfg.Site.ContentDir)
	writePage(t, contentDir, "good.md", "---\nlayout: page\ntitle: ok\npermalink: /ok/\n---\n")
	writePage(t, contentDir, "bad.md", "---\nlayout: page\n---\n")

	b, err := NewBuilder(root, cfg, st)
	require.NoError(t, err)

	sum, err := b.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Built)
	assert.Len(t, sum.Invalid, 1)
}
