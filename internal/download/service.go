package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/audiograb/audiograb/internal/model"
	"github.com/audiograb/audiograb/internal/platform"
	"github.com/audiograb/audiograb/internal/registry"
)

// Progress milestones for one item. Download advances 0..80, the encode
// claims the next 19 and the last point lands on completion.
const (
	preflightPercent = 10
	downloadPhaseMax = 80
	encodePhaseSpan  = 19
)

// Orchestrator runs download tasks asynchronously against the registry.
type Orchestrator struct {
	registry   *registry.Registry
	extractor  Extractor
	transcoder Transcoder

	downloadDir string
	maxItems    int
	workers     int
}

// NewOrchestrator wires the orchestrator. workers bounds playlist
// parallelism, maxItems caps how much of a playlist is taken.
func NewOrchestrator(reg *registry.Registry, ex Extractor, tr Transcoder, downloadDir string, maxItems, workers int) *Orchestrator {
	return &Orchestrator{
		registry:    reg,
		extractor:   ex,
		transcoder:  tr,
		downloadDir: downloadDir,
		maxItems:    maxItems,
		workers:     workers,
	}
}

// Start registers a task for link and kicks off processing in the
// background. It returns the task id immediately.
func (o *Orchestrator) Start(link string) string {
	id := o.registry.Create()
	go o.process(id, link)
	return id
}

func (o *Orchestrator) process(id, link string) {
	ctx := context.Background()

	if !o.transcoder.Available() {
		log.Printf("[task %s]: ffmpeg not available", id)
		o.registry.Fail(id)
		return
	}
	o.registry.SetPercent(id, preflightPercent)

	if IsPlaylistLink(link) {
		playlistID := PlaylistID(link)
		if playlistID == "" {
			log.Printf("[task %s]: no playlist id in link %s", id, link)
			o.registry.Fail(id)
			return
		}
		o.processPlaylist(ctx, id, playlistID)
		return
	}
	o.processSingle(ctx, id, link)
}

func (o *Orchestrator) processSingle(ctx context.Context, id, link string) {
	path, err := o.processItem(ctx, model.PlaylistEntry{URL: link}, func(percent int) {
		o.registry.SetPercent(id, percent)
	})
	if err != nil {
		log.Printf("[task %s]: %v", id, err)
		o.registry.Fail(id)
		return
	}
	o.registry.SetFilename(id, filepath.Base(path))
	o.registry.SetPercent(id, 100)
}

// processItem downloads and encodes one entry, reporting percent milestones
// through onPercent. It returns the produced mp3 path.
func (o *Orchestrator) processItem(ctx context.Context, entry model.PlaylistEntry, onPercent func(percent int)) (string, error) {
	token := uuid.NewString()[:8]

	raw, err := o.extractor.DownloadAudio(ctx, entry.URL, token, func(frac float64) {
		onPercent(int(frac * downloadPhaseMax))
	})
	if err != nil {
		return "", err
	}
	onPercent(downloadPhaseMax)

	title := raw.Title
	if entry.Title != "" {
		title = entry.Title
	}

	return o.transcodeToMP3(ctx, raw.Path, title, token, onPercent)
}

func (o *Orchestrator) transcodeToMP3(ctx context.Context, rawPath, title, token string, onPercent func(percent int)) (string, error) {
	outName := platform.SafeTitle(title) + "_" + token + ".mp3"
	outPath := filepath.Join(o.downloadDir, outName)

	total, err := o.transcoder.ProbeDuration(ctx, rawPath)
	if err != nil {
		log.Printf("[probe]: %v", err)
		total = 1
	}

	err = o.transcoder.ToMP3(ctx, rawPath, outPath, total, func(frac float64) {
		onPercent(downloadPhaseMax + int(frac*encodePhaseSpan))
	})
	if err != nil {
		return "", err
	}

	if err := os.Remove(rawPath); err != nil {
		log.Printf("[cleanup]: remove %s: %v", rawPath, err)
	}
	return outPath, nil
}

// itemUpdate is a worker-to-collector progress message.
type itemUpdate struct {
	idx      int
	percent  int
	filename string
}

func (o *Orchestrator) processPlaylist(ctx context.Context, id, playlistID string) {
	entries, err := o.extractor.PlaylistEntries(ctx, playlistID, o.maxItems)
	if err != nil {
		log.Printf("[task %s]: %v", id, err)
		o.registry.Fail(id)
		return
	}
	if len(entries) == 0 {
		log.Printf("[task %s]: playlist %s is empty", id, playlistID)
		o.registry.Fail(id)
		return
	}

	titles := make([]string, len(entries))
	for i, entry := range entries {
		titles[i] = entry.Title
	}
	o.registry.InitComposite(id, titles)

	// Workers report through a channel; a single collector applies updates
	// so the registry sees a serialized stream per task.
	updates := make(chan itemUpdate)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for u := range updates {
			o.registry.SetItemPercent(id, u.idx, u.percent)
			if u.filename != "" {
				o.registry.SetItemFilename(id, u.idx, u.filename)
			}
		}
	}()

	files := make([]string, len(entries))
	jobs := make(chan int)

	workers := o.workers
	if workers > len(entries) {
		workers = len(entries)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				entry := entries[idx]
				path, err := o.processItem(ctx, entry, func(percent int) {
					updates <- itemUpdate{idx: idx, percent: percent}
				})
				if err != nil {
					log.Printf("[skipping]: %s: %v", entry.URL, err)
					updates <- itemUpdate{idx: idx, percent: model.FailedPercent}
					continue
				}
				files[idx] = path
				updates <- itemUpdate{idx: idx, percent: 100, filename: filepath.Base(path)}
			}
		}()
	}

	for idx := range entries {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	close(updates)
	<-collectorDone

	produced := make([]string, 0, len(files))
	for _, path := range files {
		if path != "" {
			produced = append(produced, path)
		}
	}
	if len(produced) == 0 {
		o.registry.FinalizeComposite(id, model.FailedPercent)
		return
	}

	zipName := fmt.Sprintf("playlist_%s.zip", id[:8])
	zipPath := filepath.Join(o.downloadDir, zipName)
	if err := packageZip(zipPath, produced); err != nil {
		log.Printf("[task %s]: %v", id, err)
		o.registry.FinalizeComposite(id, model.FailedPercent)
		return
	}

	o.registry.SetFilename(id, zipName)
	o.registry.FinalizeComposite(id, 100)
}
