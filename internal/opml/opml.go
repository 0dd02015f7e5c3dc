// ABOUTME: OPML import and export for feed subscriptions
// ABOUTME: Round-trips feed metadata through outline attributes and validates imported URLs

package opml

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/harper/feedvault/internal/fetch"
	"github.com/harper/feedvault/internal/models"
)

type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title string `xml:"title"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

// outlineXML carries the standard OPML feed attributes plus the
// extension attributes that let an export round-trip feed settings.
type outlineXML struct {
	Text       string       `xml:"text,attr"`
	Title      string       `xml:"title,attr,omitempty"`
	Type       string       `xml:"type,attr,omitempty"`
	XMLURL     string       `xml:"xmlUrl,attr,omitempty"`
	Category   string       `xml:"category,attr,omitempty"`
	Status     string       `xml:"status,attr,omitempty"`
	SaveType   string       `xml:"saveType,attr,omitempty"`
	Summarize  string       `xml:"summarize,attr,omitempty"`
	Transcribe string       `xml:"transcribe,attr,omitempty"`
	Children   []outlineXML `xml:"outline"`
}

// Export serializes feeds as an OPML 2.0 document. Feeds sharing a group
// are nested under one folder outline; ungrouped feeds sit at the root.
func Export(title string, feeds []models.Feed) ([]byte, error) {
	doc := opmlXML{
		Version: "2.0",
		Head:    headXML{Title: title},
	}

	folders := make(map[string]int)
	for _, feed := range feeds {
		outline := feedOutline(feed)
		if feed.Group == "" {
			doc.Body.Outlines = append(doc.Body.Outlines, outline)
			continue
		}
		idx, ok := folders[feed.Group]
		if !ok {
			doc.Body.Outlines = append(doc.Body.Outlines, outlineXML{
				Text:  feed.Group,
				Title: feed.Group,
			})
			idx = len(doc.Body.Outlines) - 1
			folders[feed.Group] = idx
		}
		doc.Body.Outlines[idx].Children = append(doc.Body.Outlines[idx].Children, outline)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal opml: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func feedOutline(feed models.Feed) outlineXML {
	o := outlineXML{
		Text:     feed.DisplayName(),
		Title:    feed.DisplayName(),
		Type:     "rss",
		XMLURL:   feed.URL,
		Category: feed.Group,
		Status:   feed.Status,
		SaveType: feed.Type,
	}
	if feed.Summarize {
		o.Summarize = "true"
	}
	if feed.Transcribe {
		o.Transcribe = "true"
	}
	return o
}

// ImportError records one outline that could not be imported.
type ImportError struct {
	URL string
	Err error
}

func (e ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.URL, e.Err)
}

// Result reconciles an import: feeds worth adding, URLs already
// subscribed, and outlines that failed validation.
type Result struct {
	Imported   []models.Feed
	Duplicates []string
	Errors     []ImportError
}

// Import parses an OPML document and reconciles its feed outlines against
// the existing subscriptions. A document that does not parse at all is an
// error; individual bad outlines only land in Result.Errors, so one dead
// feed never blocks the rest of an import. Every new URL is validated
// with a live fetch before it is accepted.
func Import(ctx context.Context, data []byte, existing []models.Feed) (*Result, error) {
	var doc opmlXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse opml: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, feed := range existing {
		known[strings.ToLower(feed.URL)] = true
	}

	result := &Result{}
	for _, outline := range doc.Body.Outlines {
		importOutline(ctx, outline, "", known, result)
	}
	return result, nil
}

func importOutline(ctx context.Context, outline outlineXML, folder string, known map[string]bool, result *Result) {
	if outline.XMLURL == "" {
		// Folder outline: its text names the group for nested feeds.
		name := outline.Text
		if name == "" {
			name = outline.Title
		}
		for _, child := range outline.Children {
			importOutline(ctx, child, name, known, result)
		}
		return
	}

	url := strings.TrimSpace(outline.XMLURL)
	key := strings.ToLower(url)
	if known[key] {
		result.Duplicates = append(result.Duplicates, url)
		return
	}

	if err := validate(ctx, url); err != nil {
		result.Errors = append(result.Errors, ImportError{URL: url, Err: err})
		return
	}

	feed := models.NewFeed(url)
	feed.Title = outline.Title
	if feed.Title == "" {
		feed.Title = outline.Text
	}
	feed.Group = folder
	if outline.Category != "" {
		feed.Group = outline.Category
	}
	if outline.Status == models.StatusPaused {
		feed.Status = models.StatusPaused
	}
	if outline.SaveType == models.TypeSingleFile {
		feed.Type = models.TypeSingleFile
	}
	feed.Summarize = outline.Summarize == "true"
	feed.Transcribe = outline.Transcribe == "true"

	known[key] = true
	result.Imported = append(result.Imported, *feed)
}

// validate fetches the URL and checks the response looks like a feed,
// either by content type or by a recognizable document marker. A parse
// of the whole document is deliberately avoided; reachability plus a
// feed-shaped response is enough at import time.
func validate(ctx context.Context, url string) error {
	res, err := fetch.Fetch(ctx, url)
	if err != nil {
		return err
	}

	if strings.Contains(strings.ToLower(res.ContentType), "xml") {
		return nil
	}
	body := string(res.Body)
	for _, marker := range []string{"<rss", "<feed", "<channel"} {
		if strings.Contains(body, marker) {
			return nil
		}
	}
	return fmt.Errorf("response does not look like a feed (content type %q)", res.ContentType)
}
