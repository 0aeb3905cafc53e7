package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/audiograb/audiograb/internal/model"
)

// YouTubeWatchURLTemplate builds a watch page URL from a video id.
const YouTubeWatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// Client runs yt-dlp for metadata and media retrieval.
type Client struct {
	downloadDir string
	timeout     time.Duration
}

// NewClient returns a client writing downloads into downloadDir. A zero
// timeout means extractions run unbounded.
func NewClient(downloadDir string, timeout time.Duration) *Client {
	return &Client{downloadDir: downloadDir, timeout: timeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Info dumps metadata for a single video without downloading it.
func (c *Client) Info(ctx context.Context, link string) (*model.MediaInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	dl := ytdlp.New().
		Quiet().
		SkipDownload().
		NoPlaylist().
		DumpSingleJSON()

	res, err := dl.Run(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("extract info for %s: %w", link, err)
	}
	return parseInfo(res.Stdout)
}

// FlatInfo dumps metadata without resolving playlist entries, capped at
// limit rows.
func (c *Client) FlatInfo(ctx context.Context, link string, limit int) (*model.MediaInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	dl := ytdlp.New().
		Quiet().
		SkipDownload().
		DumpSingleJSON().
		FlatPlaylist()
	if limit > 0 {
		dl.PlaylistEnd(limit)
	}

	res, err := dl.Run(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("extract flat info for %s: %w", link, err)
	}
	return parseInfo(res.Stdout)
}

// Search runs a YouTube search and maps the flat entries into results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	info, err := c.FlatInfo(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query), 0)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]model.SearchResult, 0, len(info.Entries))
	for _, entry := range info.Entries {
		url := entry.URL
		if url == "" && entry.ID != "" {
			url = fmt.Sprintf(YouTubeWatchURLTemplate, entry.ID)
		}
		results = append(results, model.SearchResult{
			ID:        entry.ID,
			Title:     entry.Title,
			URL:       url,
			Duration:  entry.Duration,
			Thumbnail: entry.Thumbnail,
		})
	}
	return results, nil
}

func parseInfo(stdout string) (*model.MediaInfo, error) {
	var info model.MediaInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return &info, nil
}
