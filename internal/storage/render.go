// ABOUTME: Markdown template rendering for materialized articles
// ABOUTME: Produces the title/status/date/link layout written to the vault

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/feedvault/internal/models"
)

// RenderItem renders one article through the markdown template: a heading,
// a status line, the date, the source link, then the body.
func RenderItem(item models.Item) string {
	var b strings.Builder

	title := item.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	status := []string{"unread"}
	if item.Author != "" {
		status = append(status, "by "+item.Author)
	}
	if item.SiteName != "" {
		status = append(status, item.SiteName)
	}
	if item.ReadingTime > 0 {
		status = append(status, fmt.Sprintf("%d min read", item.ReadingTime))
	}
	fmt.Fprintf(&b, "> %s\n\n", strings.Join(status, " · "))

	if !item.Published.IsZero() {
		fmt.Fprintf(&b, "%s\n\n", item.Published.Format(time.RFC1123))
	}
	if item.Link != "" {
		fmt.Fprintf(&b, "[Read original](%s)\n\n", item.Link)
	}

	b.WriteString(item.Content)
	return strings.TrimRight(b.String(), "\n") + "\n"
}
