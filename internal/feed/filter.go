// Package feed holds the search filter applied to post lists.
package feed

import (
	"strings"

	"github.com/milhonews/milho/internal/types"
)

// Filter returns the posts whose text, author display name or author handle
// contains query, ignoring case. An empty query returns posts as given.
// Order is preserved and posts is never modified.
func Filter(query string, posts []types.Post) []types.Post {
	if query == "" {
		return posts
	}

	q := strings.ToLower(query)
	filtered := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if matches(q, p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Matches reports whether a single post passes Filter for query
func Matches(query string, p types.Post) bool {
	return matches(strings.ToLower(query), p)
}

// SearchText is the text the filter looks at, joined by newlines and left in
// its original case. The page embeds it so the browser can apply the filter
// live, folding case on both sides with its own rules.
func SearchText(p types.Post) string {
	return p.Text + "\n" + p.AuthorDisplayName + "\n" + p.AuthorHandle
}

func matches(lowerQuery string, p types.Post) bool {
	return strings.Contains(strings.ToLower(p.Text), lowerQuery) ||
		strings.Contains(strings.ToLower(p.AuthorDisplayName), lowerQuery) ||
		strings.Contains(strings.ToLower(p.AuthorHandle), lowerQuery)
}
