package newslist

import (
	"fmt"
	"strings"
)

// NoSummary is written for articles stored without a summary.
const NoSummary = "Bu haber için özet mevcut değil."

// Format renders articles in the numbered markdown convention that Extract reads back:
//
//	1. **Title**
//	   - **Kaynak:** Source
//	   - **Yayın Tarihi:** 2024-01-01
//	   - **Özet:** Summary
//	   - **Link:** [Haber Linki](https://...)
//
// Items are separated by a blank line and preceded by intro.
func Format(intro string, articles []ArticleRecord) string {
	parts := make([]string, 0, len(articles))
	for i, a := range articles {
		summary := strings.TrimSpace(a.Summary)
		if summary == "" {
			summary = NoSummary
		}
		parts = append(parts, fmt.Sprintf(
			"%d. **%s**\n   - **Kaynak:** %s\n   - **Yayın Tarihi:** %s\n   - **Özet:** %s\n   - **Link:** [%s](%s)",
			i+1,
			strings.TrimSpace(a.Title),
			strings.TrimSpace(a.Source),
			strings.TrimSpace(a.PublishDate),
			summary,
			linkLabel,
			strings.TrimSpace(a.URL),
		))
	}
	return intro + "\n\n" + strings.Join(parts, "\n\n")
}
