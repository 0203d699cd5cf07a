package types

import (
	"strings"
	"time"
)

const bskyProfileBase = "https://bsky.app/profile/"

// Post represents a single feed item returned by the posts service
type Post struct {
	ID                string    `json:"id"` // content identifier, used as the list key
	URI               string    `json:"uri"`
	AuthorDID         string    `json:"author_did"`
	AuthorHandle      string    `json:"author_handle"`
	AuthorDisplayName string    `json:"author_display_name"`
	AuthorAvatarURL   string    `json:"author_avatar_url"`
	Text              string    `json:"text"`
	CreatedAt         time.Time `json:"created_at"`
	IndexedAt         time.Time `json:"indexed_at"`
	ReplyCount        uint      `json:"reply_count"`
	RepostCount       uint      `json:"repost_count"`
	LikeCount         uint      `json:"like_count"`
}

// RecordKey returns the last path segment of the post URI
func (p Post) RecordKey() string {
	if i := strings.LastIndex(p.URI, "/"); i >= 0 {
		return p.URI[i+1:]
	}
	return p.URI
}

// URL returns the public web link to the post
func (p Post) URL() string {
	return p.ProfileURL() + "/post/" + p.RecordKey()
}

// ProfileURL returns the public web link to the post author
func (p Post) ProfileURL() string {
	return bskyProfileBase + p.AuthorHandle
}

// Topic is one titled section of the AI-produced summary
type Topic struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Section is a named feed shown as its own page
type Section struct {
	Name    string `json:"name" toml:"name"`
	Title   string `json:"title" toml:"title"`
	Path    string `json:"path" toml:"path"`       // posts endpoint path on the posts service
	Summary bool   `json:"summary" toml:"summary"` // whether the page shows the summary
}
