// Package summary turns the summarization service's text into titled topics.
package summary

import (
	"strings"

	"github.com/milhonews/milho/internal/types"
)

// Marker surrounds each topic title in the raw summary text
const Marker = "**"

// Parse splits raw on Marker. Every odd token is a title and the token after it
// is that title's content. A trailing title with no content gets "", and any text
// before the first title is dropped. Parse never fails.
func Parse(raw string) []types.Topic {
	tokens := strings.Split(raw, Marker)

	var topics []types.Topic
	for i := 1; i < len(tokens); i += 2 {
		t := types.Topic{Title: strings.TrimSpace(tokens[i])}
		if i+1 < len(tokens) {
			t.Content = strings.TrimSpace(tokens[i+1])
		}
		topics = append(topics, t)
	}
	return topics
}
