package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/audiograb/audiograb/internal/model"
)

const tempPrefix = "temp_"

// DownloadAudio fetches the best available audio for url into the download
// directory under a token-derived temp name. onProgress receives the byte
// ratio in [0,1]; pass nil to skip reporting.
func (c *Client) DownloadAudio(ctx context.Context, url, token string, onProgress func(frac float64)) (model.RawAudio, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prefix := tempPrefix + token
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		Format("bestaudio/best").
		Output(filepath.Join(c.downloadDir, prefix+".%(ext)s"))

	dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		if onProgress == nil {
			return
		}
		total := int64(update.TotalBytes)
		if total <= 0 {
			return
		}
		frac := float64(int64(update.DownloadedBytes)) / float64(total)
		if frac > 1 {
			frac = 1
		}
		onProgress(frac)
	})

	res, err := dl.Run(ctx, url)
	if err != nil {
		return model.RawAudio{}, fmt.Errorf("download audio for %s: %w", url, err)
	}

	raw := model.RawAudio{}
	if res != nil {
		info, err := res.GetExtractedInfo()
		if err == nil && len(info) > 0 {
			if info[0].Filename != nil {
				raw.Path = *info[0].Filename
			}
			if info[0].Title != nil {
				raw.Title = *info[0].Title
			}
		}
	}
	if raw.Path == "" {
		path, err := c.findByPrefix(prefix)
		if err != nil {
			return model.RawAudio{}, err
		}
		raw.Path = path
	}
	if raw.Title == "" {
		raw.Title = token
	}
	return raw, nil
}

// DownloadFormat fetches one specific format id to an exact output path.
func (c *Client) DownloadFormat(ctx context.Context, url, formatID, outPath string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	dl := ytdlp.New().
		ForceOverwrites().
		Quiet().
		Format(formatID).
		Output(outPath)

	if _, err := dl.Run(ctx, url); err != nil {
		return fmt.Errorf("download format %s for %s: %w", formatID, url, err)
	}
	return nil
}

// findByPrefix locates the downloaded file when yt-dlp did not report a
// filename. The extension is chosen by the extractor so only the prefix is
// known up front.
func (c *Client) findByPrefix(prefix string) (string, error) {
	entries, err := os.ReadDir(c.downloadDir)
	if err != nil {
		return "", fmt.Errorf("scan download dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(c.downloadDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no downloaded file with prefix %s", prefix)
}
