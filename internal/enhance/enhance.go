// ABOUTME: Best-effort article enhancement for feeds that truncate their content
// ABOUTME: Fetches the linked page, extracts the main content, and converts it to markdown

package enhance

import (
	"bytes"
	"context"
	"log"
	"math"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/harper/feedvault/internal/fetch"
	"github.com/harper/feedvault/internal/models"
)

// ContentThreshold is the length below which feed content is treated as
// truncated. Short content is a proxy for "this feed serves summaries";
// re-fetching adequate content is wasteful and risks anti-bot pages.
const ContentThreshold = 500

// excerptLength bounds the generated excerpt.
const excerptLength = 200

// wordsPerMinute is the reading speed used for the reading-time estimate.
const wordsPerMinute = 200

// chrome lists elements removed before extraction.
const chrome = "script, style, nav, aside, header, footer, form, iframe, noscript, svg"

// candidateSelectors are tried in order when locating the main content.
var candidateSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".post-content",
	".entry-content",
	".article-body",
	".content",
}

// NeedsEnhancement reports whether an item's content is thin enough to be
// worth a full-page fetch.
func NeedsEnhancement(item models.Item) bool {
	return len(item.Content) < ContentThreshold
}

// Enhancer upgrades thin feed items with readable page content.
type Enhancer struct{}

// New creates an Enhancer.
func New() *Enhancer {
	return &Enhancer{}
}

// Enhance fetches the item's link and overlays extracted content and
// metadata. It never fails: on any internal error the input is returned
// unchanged, because enhancement is a quality improvement, not a
// correctness requirement. Feed-provided metadata is never overwritten;
// only empty fields are filled.
func (e *Enhancer) Enhance(ctx context.Context, item models.Item) models.Item {
	if item.Link == "" {
		return item
	}

	result, err := fetch.Fetch(ctx, item.Link)
	if err != nil {
		log.Printf("enhance: fetch %s: %v", item.Link, err)
		return item
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		log.Printf("enhance: parse %s: %v", item.Link, err)
		return item
	}

	markdown := extractContent(doc)
	if markdown == "" {
		return item
	}

	enhanced := item
	enhanced.Content = markdown

	text := strings.Join(strings.Fields(markdown), " ")
	enhanced.Excerpt = excerpt(text)
	enhanced.ReadingTime = readingTime(text)

	if enhanced.Author == "" {
		enhanced.Author = metaContent(doc, "author")
	}
	if enhanced.SiteName == "" {
		enhanced.SiteName = metaProperty(doc, "og:site_name")
	}
	if enhanced.Language == "" {
		enhanced.Language, _ = doc.Find("html").Attr("lang")
	}

	return enhanced
}

// extractContent locates the main content container and converts it to
// markdown. Returns "" when nothing usable was found.
func extractContent(doc *goquery.Document) string {
	doc.Find(chrome).Remove()

	selection := doc.Find("body")
	for _, selector := range candidateSelectors {
		candidate := doc.Find(selector).First()
		if candidate.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(candidate.Text())) >= ContentThreshold/2 {
			selection = candidate
			break
		}
	}

	html, err := selection.Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return ""
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return ""
	}

	markdown = strings.TrimSpace(markdown)
	if len(strings.Fields(markdown)) < 10 {
		// Not enough text to be a real article body.
		return ""
	}
	return markdown
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

func readingTime(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

func metaContent(doc *goquery.Document, name string) string {
	value, _ := doc.Find("meta[name=" + name + "]").Attr("content")
	return strings.TrimSpace(value)
}

func metaProperty(doc *goquery.Document, property string) string {
	value, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(value)
}
