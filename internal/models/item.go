// ABOUTME: Item model representing a single feed entry within one sync pass
// ABOUTME: Items are ephemeral; their persisted form is the markdown file they produce

package models

import "time"

// StateSeparator joins a feed URL and an article link into a composite
// state key. "::" cannot appear in a well-formed URL, so the key is
// collision-free.
const StateSeparator = "::"

// Item is one entry of a fetched feed. It exists only for the duration of
// a sync pass; identity for read/deleted tracking is the composite key
// produced by StateKey.
type Item struct {
	Title       string
	Link        string
	GUID        string
	Author      string
	Published   time.Time // zero when the feed carried no date
	Content     string
	Excerpt     string
	SiteName    string
	Language    string
	ReadingTime int // estimated minutes, 0 when unknown
	Categories  []string
}

// StateKey builds the composite article identity used by the state store.
func StateKey(feedURL, link string) string {
	return feedURL + StateSeparator + link
}
