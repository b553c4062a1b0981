package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"podcast-summary/pkg/domain"
)

// ErrEmptyFeed is returned when a channel feed parses but carries no items.
var ErrEmptyFeed = errors.New("feed contains no items")

// Discoverer lists a channel's recent videos from its Atom feed.
type Discoverer struct {
	feedParser *gofeed.Parser
}

// NewDiscoverer creates a discoverer with a fresh feed parser.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		feedParser: gofeed.NewParser(),
	}
}

// RecentVideos fetches the channel feed and returns videos published within
// the lookback window, newest first, capped at limit. A limit of 0 means no
// cap.
func (d *Discoverer) RecentVideos(ctx context.Context, handle, feedURL string, lookbackDays, limit int) ([]domain.VideoReference, error) {
	feed, err := d.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse channel feed for %s: %w", handle, err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", handle, ErrEmptyFeed)
	}

	cutoff := time.Now().AddDate(0, 0, -lookbackDays)

	videos := make([]domain.VideoReference, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(videos) >= limit {
			break
		}

		videoID := videoIDFromItem(item)
		if videoID == "" {
			log.Printf("[discovery] %s: skipping feed item without video id: %q", handle, item.Title)
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		videos = append(videos, domain.VideoReference{
			VideoID:       videoID,
			ChannelHandle: strings.TrimPrefix(handle, "@"),
			Title:         strings.TrimSpace(item.Title),
			PublishedAt:   published,
		})
	}

	log.Printf("[discovery] %s: %d recent videos within %d days", handle, len(videos), lookbackDays)
	return videos, nil
}

// videoIDFromItem pulls the video id from a feed item, preferring the yt
// namespace extension and falling back to the watch-URL query parameter.
func videoIDFromItem(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 {
			if id := strings.TrimSpace(ids[0].Value); id != "" {
				return id
			}
		}
	}

	if item.Link != "" {
		if parsed, err := url.Parse(item.Link); err == nil {
			if id := parsed.Query().Get("v"); id != "" {
				return id
			}
		}
	}

	return ""
}
