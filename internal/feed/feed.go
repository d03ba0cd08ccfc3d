// Package feed fetches an essays RSS feed and refreshes the preview
// cards embedded in a content page between marker comments.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"time"

	"folio/internal/logging"

	xhtml "golang.org/x/net/html"
)

// Marker comments bounding the generated region of the target page.
const (
	StartMarker = "<!-- ESSAYS_START -->"
	EndMarker   = "<!-- ESSAYS_END -->"
)

// Post is one feed item, optionally with a resolved thumbnail.
type Post struct {
	Title       string
	Link        string
	Description string
	Image       string
}

// Pre-compile patterns used on every post page.
var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	s3Pattern  = regexp.MustCompile(`https://substack-post-media\.s3\.amazonaws\.com/public/images/[^\s"&]+`)
)

// rss mirrors just the feed elements the pipeline reads.
type rss struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Fetcher downloads the feed and resolves per-post thumbnails.
type Fetcher struct {
	Client       *http.Client
	UserAgent    string
	ThumbnailCDN string

	// FetchDelay spaces out the per-post page fetches.
	FetchDelay time.Duration
}

// FetchPosts downloads and parses the RSS feed at url.
func (f *Fetcher) FetchPosts(ctx context.Context, url string) ([]Post, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	var doc rss
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]Post, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		// Descriptions arrive as escaped HTML; strip the tags and then
		// the remaining entities.
		desc := tagPattern.ReplaceAllString(item.Description, "")
		desc = html.UnescapeString(desc)
		posts = append(posts, Post{
			Title:       html.UnescapeString(strings.TrimSpace(item.Title)),
			Link:        strings.TrimSpace(item.Link),
			Description: strings.TrimSpace(desc),
		})
	}

	logging.Feed("fetched %d posts from %s", len(posts), url)
	return posts, nil
}

// ResolveImages fills each post's Image by reading og:image off the post
// page. A post whose image cannot be resolved keeps an empty Image; the
// card renders without a thumbnail.
func (f *Fetcher) ResolveImages(ctx context.Context, posts []Post) {
	for i := range posts {
		if err := ctx.Err(); err != nil {
			return
		}
		img, err := f.ogImage(ctx, posts[i].Link)
		if err != nil {
			logging.FeedWarn("could not resolve og:image for %s: %v", posts[i].Link, err)
			continue
		}
		posts[i].Image = img
		if f.FetchDelay > 0 && i < len(posts)-1 {
			select {
			case <-time.After(f.FetchDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// ogImage fetches one post page and extracts its og:image meta tag,
// unwrapping any CDN nesting down to the raw image URL and re-wrapping
// it with the configured thumbnail CDN prefix.
func (f *Fetcher) ogImage(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}

	content, found := findOGImage(body)
	if !found {
		return "", nil
	}

	// The CDN wrapper percent-encodes the nested image URL.
	if decoded, err := neturl.PathUnescape(content); err == nil {
		content = decoded
	}

	if raw := s3Pattern.FindString(content); raw != "" {
		return f.ThumbnailCDN + raw, nil
	}
	return "", nil
}

// findOGImage walks the document for <meta property="og:image" content=...>.
func findOGImage(body []byte) (string, bool) {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(string(body)))
	for {
		switch tokenizer.Next() {
		case xhtml.ErrorToken:
			return "", false
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "meta" {
				continue
			}
			var property, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "property":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:image" {
				return content, true
			}
		}
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return io.ReadAll(resp.Body)
}
