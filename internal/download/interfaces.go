package download

import (
	"context"

	"github.com/audiograb/audiograb/internal/model"
)

// Extractor retrieves playlist contents and downloads raw audio.
type Extractor interface {
	PlaylistEntries(ctx context.Context, playlistID string, limit int) ([]model.PlaylistEntry, error)
	DownloadAudio(ctx context.Context, url, token string, onProgress func(frac float64)) (model.RawAudio, error)
}

// Transcoder converts raw downloads to mp3.
type Transcoder interface {
	Available() bool
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ToMP3(ctx context.Context, in, out string, totalDuration float64, onProgress func(frac float64)) error
}
