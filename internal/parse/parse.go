// ABOUTME: RSS/Atom feed parsing using the gofeed library
// ABOUTME: Normalizes parsed feeds into the models.Item shape with fallback rules

package parse

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/harper/feedvault/internal/fetch"
	"github.com/harper/feedvault/internal/models"
)

// excerptLength bounds the excerpt derived from an item's summary.
const excerptLength = 200

// Feed is a normalized feed document.
type Feed struct {
	Title       string
	Description string
	Link        string
	Items       []models.Item
}

// ParseError indicates the document was not a well-formed RSS or Atom feed.
// Callers decide per call-site whether to skip (bulk sync) or abort
// (explicit add/import).
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses RSS or Atom feed data. Documents matching neither shape
// fail with a *ParseError. Item normalization: GUID falls back to the
// link, publication date falls back from published to updated, content
// is preferred over the summary, and text fields are trimmed.
func Parse(data []byte) (*Feed, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseString(string(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	feed := &Feed{
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
		Link:        parsed.Link,
		Items:       make([]models.Item, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		normalized := models.Item{
			Title:      strings.TrimSpace(item.Title),
			Link:       item.Link,
			GUID:       item.GUID,
			Categories: item.Categories,
		}

		if normalized.GUID == "" {
			normalized.GUID = item.Link
		}

		if item.Author != nil {
			normalized.Author = item.Author.Name
		}

		if item.PublishedParsed != nil {
			normalized.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			normalized.Published = *item.UpdatedParsed
		}

		if item.Content != "" {
			normalized.Content = strings.TrimSpace(item.Content)
		} else {
			normalized.Content = strings.TrimSpace(item.Description)
		}

		normalized.Excerpt = excerpt(StripTags(item.Description))

		feed.Items = append(feed.Items, normalized)
	}

	return feed, nil
}

// StripTags reduces an HTML fragment to its text content with whitespace
// collapsed. Fragments that fail to tokenize come back as-is; feed
// summaries are frequently malformed and the text is only advisory.
func StripTags(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		}
	}
}

func excerpt(text string) string {
	if len(text) <= excerptLength {
		return text
	}
	cut := text[:excerptLength]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

// FetchAndParse retrieves a feed URL and parses the response. It performs
// no retries and has no side effects; both failure modes surface as their
// typed errors for the caller to handle.
func FetchAndParse(ctx context.Context, url string) (*Feed, error) {
	result, err := fetch.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Parse(result.Body)
}
