package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndHashFor(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.HashFor("content/about.md")
	require.NoError(t, err)
	assert.False(t, found)

	rec := PageRecord{
		SourcePath:  "content/about.md",
		Permalink:   "/",
		Title:       "about",
		Layout:      "about",
		ContentHash: "aaaa",
	}
	require.NoError(t, s.UpsertPage(rec))

	hash, found, err := s.HashFor("content/about.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "aaaa", hash)

	// Same source, new hash.
	rec.ContentHash = "bbbb"
	require.NoError(t, s.UpsertPage(rec))

	hash, found, err = s.HashFor("content/about.md")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "bbbb", hash)

	pages, err := s.Pages()
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestSourceForPermalink(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertPage(PageRecord{
		SourcePath: "content/about.md", Permalink: "/", ContentHash: "x",
	}))

	src, found, err := s.SourceForPermalink("/")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "content/about.md", src)

	_, found, err = s.SourceForPermalink("/missing/")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeletePage(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertPage(PageRecord{
		SourcePath: "content/cv.md", Permalink: "/cv/", ContentHash: "x",
	}))
	require.NoError(t, s.DeletePage("content/cv.md"))

	_, found, err := s.HashFor("content/cv.md")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBuildHistory(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordBuild(BuildRecord{
			ID:         uuid.NewString(),
			StartedAt:  now.Add(time.Duration(i) * time.Minute),
			FinishedAt: now.Add(time.Duration(i)*time.Minute + time.Second),
			Built:      i,
			Skipped:    1,
		}))
	}

	builds, err := s.RecentBuilds(2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	// Newest first.
	assert.Equal(t, 2, builds[0].Built)
	assert.Equal(t, 1, builds[1].Built)
}
