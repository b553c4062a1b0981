package domain

import "time"

// VideoReference identifies a single video discovered on a channel.
// It is immutable once discovery produces it and is the unit of work
// for the whole pipeline.
type VideoReference struct {
	// VideoID is the platform video identifier (e.g., the 11-character
	// YouTube watch id).
	VideoID string `json:"video_id"`

	// ChannelHandle is the handle of the channel the video belongs to,
	// without the leading "@".
	ChannelHandle string `json:"channel_handle"`

	// Title is the video title as reported by the discovery feed.
	Title string `json:"title"`

	// PublishedAt is when the video was published.
	PublishedAt time.Time `json:"published_at"`

	// DurationSeconds is the video length in seconds, when known (0 if the
	// discovery source does not report it).
	DurationSeconds int `json:"duration_seconds,omitempty"`
}
