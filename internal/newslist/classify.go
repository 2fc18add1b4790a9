package newslist

import "regexp"

// listItemPattern matches a bold-prefixed numbered list item such as "1. **".
var listItemPattern = regexp.MustCompile(`\d+\.\s\*\*`)

// Classification is the outcome of Classify.
type Classification struct {
	IsNewsList bool `json:"is_news_list"`
}

// Classify reports whether text looks like a structured news list. The check is purely
// structural: any numbered list whose items start with bold markup qualifies.
func Classify(text string) Classification {
	return Classification{IsNewsList: IsNewsList(text)}
}

// IsNewsList is the boolean shorthand of Classify.
func IsNewsList(text string) bool {
	return listItemPattern.MatchString(text)
}
