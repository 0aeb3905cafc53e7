package extract

import (
	"context"
	"fmt"

	ytpl "github.com/ytget/ytdlp/v2"

	"github.com/audiograb/audiograb/internal/model"
)

// PlaylistEntries enumerates a playlist's items without downloading media.
// The result is capped at limit entries when limit is positive.
func (c *Client) PlaylistEntries(ctx context.Context, playlistID string, limit int) ([]model.PlaylistEntry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	d := ytpl.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	entries := make([]model.PlaylistEntry, 0, len(items))
	for _, it := range items {
		url := fmt.Sprintf(YouTubeWatchURLTemplate, it.VideoID)
		title := it.Title
		if title == "" {
			title = url
		}
		entries = append(entries, model.PlaylistEntry{Title: title, URL: url})
	}
	return entries, nil
}
