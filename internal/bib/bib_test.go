package bib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const papersSrc = `
@article{nilsson2021lattice,
  title = {Lattice studies of {Yang--Mills} theory},
  author = {Nilsson, {\r{A}}ke and Dupr{\'e}, Marie},
  journal = {Phys. Rev. D},
  volume = {104},
  pages = {054501--054519},
  year = {2021},
  doi = {10.1103/PhysRevD.104.054501},
  selected = {true}
}

@inproceedings{nilsson2019flow,
  title = {Gradient flow and renormalization},
  author = {Nilsson, {\r{A}}ke},
  booktitle = {Proceedings of Lattice 2019},
  year = {2019}
}

@comment{ignored entirely}
`

func TestParse_Entries(t *testing.T) {
	entries, err := Parse(papersSrc)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Sorted newest first.
	first := entries[0]
	assert.Equal(t, "nilsson2021lattice", first.Key)
	assert.Equal(t, "article", first.Type)
	assert.Equal(t, 2021, first.Year)
	assert.Equal(t, "Lattice studies of Yang--Mills theory", first.Title)
	assert.Equal(t, "Nilsson, Åke and Dupré, Marie", first.Authors)
	assert.Equal(t, "Phys. Rev. D", first.Journal)
	assert.Equal(t, "104", first.Volume)
	assert.Equal(t, "054501–054519", first.Pages)
	assert.Equal(t, "10.1103/PhysRevD.104.054501", first.DOI)
	assert.True(t, first.Selected)

	second := entries[1]
	assert.Equal(t, 2019, second.Year)
	assert.Equal(t, "Proceedings of Lattice 2019", second.Journal)
	assert.False(t, second.Selected)
}

func TestParse_LatexCleanup(t *testing.T) {
	entries, err := Parse(`@article{k, title = {{\v{s}}irok{\'e} spektrum}, year = {2020}}`)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "široké spektrum", entries[0].Title)
}

func TestParse_UnbalancedBraces(t *testing.T) {
	_, err := Parse(`@article{k, title = {broken`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbalanced braces")
}

func TestParse_MissingCiteKey(t *testing.T) {
	_, err := Parse(`@article{}`)
	require.Error(t, err)
}

func TestSelected(t *testing.T) {
	entries, err := Parse(papersSrc)
	require.NoError(t, err)

	sel := Selected(entries)
	require.Len(t, sel, 1)
	assert.Equal(t, "nilsson2021lattice", sel[0].Key)
}

func TestRenderFragment(t *testing.T) {
	entries, err := Parse(papersSrc)
	require.NoError(t, err)

	out, err := RenderFragment(entries, "")
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `id="nilsson2021lattice"`)
	assert.Contains(t, html, "https://doi.org/10.1103/PhysRevD.104.054501")
	assert.Contains(t, html, "Nilsson, Åke and Dupré, Marie")

	// Newest entry appears before the older one.
	assert.Less(t,
		strings.Index(html, "nilsson2021lattice"),
		strings.Index(html, "nilsson2019flow"))
}

func TestEntryLink(t *testing.T) {
	assert.Equal(t, "https://arxiv.org/abs/2105.01234",
		Entry{Eprint: "2105.01234", DOI: "10.1/x", URL: "https://u"}.Link())
	assert.Equal(t, "https://doi.org/10.1/x",
		Entry{DOI: "10.1/x", URL: "https://u"}.Link())
	assert.Equal(t, "https://u", Entry{URL: "https://u"}.Link())
	assert.Empty(t, Entry{}.Link())
}

func TestRenderFragment_Preprint(t *testing.T) {
	entries, err := Parse(`@article{nilsson2023heavy,
	  title = {Heavy quark diffusion},
	  author = {Nilsson, {\r{A}}ke},
	  eprint = {2301.04567},
	  year = {2023}
	}`)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2301.04567", entries[0].Eprint)

	out, err := RenderFragment(entries, "")
	require.NoError(t, err)
	html := string(out)

	// eprint-only entries link to arXiv and show it as the venue.
	assert.Contains(t, html, `<a href="https://arxiv.org/abs/2301.04567">Heavy quark diffusion</a>`)
	assert.Contains(t, html, "arXiv:2301.04567 (2023)")
}

func TestRenderFragment_HighlightAuthor(t *testing.T) {
	entries := []Entry{
		{Key: "a", Title: "T", Authors: "Åke Nilsson and Marie Dupré", Year: 2021},
		{Key: "b", Title: "U", Authors: "Nilsson, Åke", Year: 2019},
	}

	out, err := RenderFragment(entries, "Åke Nilsson")
	require.NoError(t, err)
	html := string(out)

	// Both name orders collapse to the highlighted initials.
	assert.Equal(t, 2, strings.Count(html, `<span class="highlight-author">Å.N.</span>`))
	assert.NotContains(t, html, "Åke Nilsson")
	assert.NotContains(t, html, "Nilsson, Åke")
	assert.Contains(t, html, "Marie Dupré")
}
