package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/audiograb/audiograb/internal/model"
)

const (
	chunkSize = 8 * 1024

	watchURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Prober resolves media metadata for a link.
type Prober interface {
	Info(ctx context.Context, link string) (*model.MediaInfo, error)
}

// Fetcher downloads one specific format to a path on disk.
type Fetcher interface {
	DownloadFormat(ctx context.Context, url, formatID, outPath string) error
}

// Encoder converts a temp download to mp3 for the fallback path.
type Encoder interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ToMP3(ctx context.Context, in, out string, totalDuration float64, onProgress func(frac float64)) error
}

// Proxy serves playable audio for a video id, relaying upstream when the
// chosen format allows it and falling back to a temp file otherwise.
type Proxy struct {
	prober  Prober
	fetcher Fetcher
	encoder Encoder
	client  *http.Client

	downloadDir string
}

// NewProxy wires the proxy. upstreamTimeout bounds connecting to the
// upstream host and waiting for its response headers; the body itself has no
// overall deadline so long tracks keep playing.
func NewProxy(prober Prober, fetcher Fetcher, encoder Encoder, downloadDir string, upstreamTimeout time.Duration) *Proxy {
	transport := &http.Transport{}
	if upstreamTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: upstreamTimeout}).DialContext
		transport.ResponseHeaderTimeout = upstreamTimeout
	}
	return &Proxy{
		prober:      prober,
		fetcher:     fetcher,
		encoder:     encoder,
		client:      &http.Client{Transport: transport},
		downloadDir: downloadDir,
	}
}

// Serve resolves the video's formats and streams audio to the client.
// fullURL overrides the watch page URL derived from videoID when set.
func (p *Proxy) Serve(w http.ResponseWriter, r *http.Request, videoID, fullURL string) {
	link := fullURL
	if link == "" {
		link = fmt.Sprintf(watchURLTemplate, videoID)
	}

	info, err := p.prober.Info(r.Context(), link)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sel, ok := ChooseFormat(info.Formats)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no audio formats available")
		return
	}

	if sel.Direct {
		p.relay(w, r, sel.Format)
		return
	}
	p.serveTempFile(w, r, link, info.ID, sel.Format)
}

// relay forwards the upstream media bytes, passing the client's Range header
// through so seeking works end to end.
func (p *Proxy) relay(w http.ResponseWriter, r *http.Request, format model.FormatCandidate) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, format.URL, nil)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Range", "Accept-Ranges", "Content-Length"} {
		if v := resp.Header.Get(header); v != "" {
			w.Header().Set(header, v)
		}
	}
	w.Header().Set("Content-Type", ContentType(format.Ext))
	w.WriteHeader(resp.StatusCode)

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(w, resp.Body, buf); err != nil {
		log.Printf("[stream]: relay ended early: %v", err)
	}
}

// serveTempFile downloads the segmented format to disk, converts it to mp3
// when needed and serves the result with range support. The temp files are
// removed once the response is written.
func (p *Proxy) serveTempFile(w http.ResponseWriter, r *http.Request, link, videoID string, format model.FormatCandidate) {
	token := uuid.NewString()[:8]
	rawPath := filepath.Join(p.downloadDir, fmt.Sprintf("stream_%s_%s.%s", videoID, token, format.Ext))

	ctx := r.Context()
	if err := p.fetcher.DownloadFormat(ctx, link, format.FormatID, rawPath); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	servePath := rawPath
	if !strings.EqualFold(format.Ext, "mp3") {
		mp3Path := filepath.Join(p.downloadDir, fmt.Sprintf("stream_%s_%s.mp3", videoID, token))
		total, err := p.encoder.ProbeDuration(ctx, rawPath)
		if err != nil {
			total = 1
		}
		if err := p.encoder.ToMP3(ctx, rawPath, mp3Path, total, nil); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := os.Remove(rawPath); err != nil {
			log.Printf("[cleanup]: remove %s: %v", rawPath, err)
		}
		servePath = mp3Path
	}
	defer func() {
		if err := os.Remove(servePath); err != nil {
			log.Printf("[cleanup]: remove %s: %v", servePath, err)
		}
	}()

	ServeFileRange(w, r, servePath, "audio/mpeg")
}

// ServeFileRange serves path honoring a single-range Range header, answering
// 206 with Content-Range for partial requests.
func ServeFileRange(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	size := stat.Size()

	rng, partial := ParseRange(r.Header.Get("Range"), size)

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", rng.Length()))
	if partial {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, size))
		w.WriteHeader(http.StatusPartialContent)
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		log.Printf("[stream]: seek %s: %v", path, err)
		return
	}
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(w, io.LimitReader(f, rng.Length()), buf); err != nil {
		log.Printf("[stream]: send %s ended early: %v", path, err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
