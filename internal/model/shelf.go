package model

import "time"

// Favorite is a personal-shelf entry.
type Favorite struct {
	MediaID string    `json:"mediaid"`
	Title   string    `json:"title,omitempty"`
	AddedAt time.Time `json:"added_at,omitempty"`
}

// WatchHistoryItem records playback progress for one media item. Progress is
// a normalized fraction in [0,1]. SeriesID groups episodes under their series
// when the played item belongs to one.
type WatchHistoryItem struct {
	MediaID   string    `json:"mediaid"`
	SeriesID  string    `json:"seriesid,omitempty"`
	Title     string    `json:"title,omitempty"`
	Progress  float64   `json:"progress"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
