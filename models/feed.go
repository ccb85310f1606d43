package models

import "time"

// Announcement is one release-feed entry that matched the episode title
// patterns. Produced per feed fetch, never persisted.
type Announcement struct {
	RawTitle    string    `json:"rawTitle"`
	ShowName    string    `json:"showName"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt"`
}
