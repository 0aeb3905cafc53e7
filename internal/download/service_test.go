package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/audiograb/audiograb/internal/model"
	"github.com/audiograb/audiograb/internal/registry"
)

type fakeExtractor struct {
	dir     string
	entries []model.PlaylistEntry
	listErr error

	failURLs map[string]bool

	// When release is non-nil, DownloadAudio blocks on it; blockURL narrows
	// the blocking to a single entry.
	release  chan struct{}
	blockURL string
	arrivals chan string

	active    int32
	maxActive int32
}

func (f *fakeExtractor) PlaylistEntries(ctx context.Context, playlistID string, limit int) ([]model.PlaylistEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	entries := f.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeExtractor) DownloadAudio(ctx context.Context, url, token string, onProgress func(frac float64)) (model.RawAudio, error) {
	cur := atomic.AddInt32(&f.active, 1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.active, -1)

	if f.arrivals != nil {
		f.arrivals <- url
	}
	if f.release != nil && (f.blockURL == "" || f.blockURL == url) {
		<-f.release
	}

	if f.failURLs[url] {
		return model.RawAudio{}, errors.New("video unavailable")
	}

	if onProgress != nil {
		onProgress(0.5)
		onProgress(1)
	}
	path := filepath.Join(f.dir, "temp_"+token+".webm")
	if err := os.WriteFile(path, []byte("raw "+url), 0o644); err != nil {
		return model.RawAudio{}, err
	}
	return model.RawAudio{Path: path, Title: "fetched " + token}, nil
}

type fakeTranscoder struct {
	available bool
	probeErr  error
}

func (f *fakeTranscoder) Available() bool { return f.available }

func (f *fakeTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return 60, nil
}

func (f *fakeTranscoder) ToMP3(ctx context.Context, in, out string, totalDuration float64, onProgress func(frac float64)) error {
	if onProgress != nil {
		onProgress(0.5)
		onProgress(1)
	}
	return os.WriteFile(out, []byte("mp3"), 0o644)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func entriesForTest(n int) []model.PlaylistEntry {
	entries := make([]model.PlaylistEntry, n)
	for i := range entries {
		entries[i] = model.PlaylistEntry{
			Title: fmt.Sprintf("track %d", i),
			URL:   fmt.Sprintf("https://www.youtube.com/watch?v=vid%d", i),
		}
	}
	return entries
}

func TestOrchestrator_StartReturnsImmediately(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{dir: dir, release: make(chan struct{})}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	done := make(chan string, 1)
	go func() {
		done <- o.Start("https://www.youtube.com/watch?v=abc")
	}()

	var id string
	select {
	case id = <-done:
		if id == "" {
			t.Fatal("Start() returned empty id")
		}
		if got := reg.Progress(id).Global(); got != model.StartedPercent && got != preflightPercent {
			t.Errorf("initial progress = %d, expected an early milestone", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() blocked on download work")
	}

	close(ex.release)
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })
}

func TestOrchestrator_SingleVideo(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{dir: dir}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/watch?v=abc")
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })

	name, ok := reg.Filename(id)
	if !ok || !strings.HasSuffix(name, ".mp3") {
		t.Fatalf("Filename() = (%q, %v), expected an mp3 name", name, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("result file missing: %v", err)
	}

	// The intermediate download must be cleaned up.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "temp_") {
			t.Errorf("temp file %s left behind", entry.Name())
		}
	}
}

func TestOrchestrator_FfmpegMissingFailsTask(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	o := NewOrchestrator(reg, &fakeExtractor{dir: dir}, &fakeTranscoder{available: false}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/watch?v=abc")
	waitFor(t, func() bool { return reg.Progress(id).Global() == model.FailedPercent })
}

func TestOrchestrator_SingleVideoFailure(t *testing.T) {
	dir := t.TempDir()
	link := "https://www.youtube.com/watch?v=abc"
	ex := &fakeExtractor{dir: dir, failURLs: map[string]bool{link: true}}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start(link)
	waitFor(t, func() bool { return reg.Progress(id).Global() == model.FailedPercent })

	if _, ok := reg.Filename(id); ok {
		t.Error("Filename() set for failed task")
	}
}

func TestOrchestrator_PlaylistWithoutIDFails(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	o := NewOrchestrator(reg, &fakeExtractor{dir: dir}, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist")
	waitFor(t, func() bool { return reg.Progress(id).Global() == model.FailedPercent })
}

func TestOrchestrator_EmptyPlaylistFails(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	o := NewOrchestrator(reg, &fakeExtractor{dir: dir}, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLempty")
	waitFor(t, func() bool { return reg.Progress(id).Global() == model.FailedPercent })
}

func TestOrchestrator_PlaylistBoundedParallelism(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{
		dir:      dir,
		entries:  entriesForTest(5),
		release:  make(chan struct{}),
		arrivals: make(chan string, 5),
	}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLfive")

	// All three workers must be inside DownloadAudio before anything is
	// released, and no fourth download may start.
	for i := 0; i < 3; i++ {
		select {
		case <-ex.arrivals:
		case <-time.After(time.Second):
			t.Fatalf("only %d downloads started, expected 3", i)
		}
	}
	if got := atomic.LoadInt32(&ex.maxActive); got != 3 {
		t.Errorf("max concurrent downloads = %d, expected 3", got)
	}

	close(ex.release)
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })

	if got := atomic.LoadInt32(&ex.maxActive); got > 3 {
		t.Errorf("max concurrent downloads = %d, expected at most 3", got)
	}
}

func TestOrchestrator_PlaylistGlobalReachesFullOnlyAfterAllItems(t *testing.T) {
	dir := t.TempDir()
	entries := entriesForTest(3)
	ex := &fakeExtractor{
		dir:      dir,
		entries:  entries,
		release:  make(chan struct{}),
		blockURL: entries[2].URL,
	}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLthree")

	waitFor(t, func() bool {
		items := reg.Progress(id).Items()
		return len(items) == 3 && items[0].Percent == 100 && items[1].Percent == 100
	})

	p := reg.Progress(id)
	if got := p.Global(); got != 66 {
		t.Errorf("Global() with one item pending = %d, expected 66", got)
	}
	if p.Finalized() {
		t.Error("aggregate finalized while an item is still running")
	}
	if _, ok := reg.Filename(id); ok {
		t.Error("Filename() set before all items finished")
	}

	close(ex.release)
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })

	name, ok := reg.Filename(id)
	expected := "playlist_" + id[:8] + ".zip"
	if !ok || name != expected {
		t.Errorf("Filename() = (%q, %v), expected %q", name, ok, expected)
	}
}

func TestOrchestrator_PlaylistSkipsFailedItems(t *testing.T) {
	dir := t.TempDir()
	entries := entriesForTest(3)
	ex := &fakeExtractor{
		dir:      dir,
		entries:  entries,
		failURLs: map[string]bool{entries[1].URL: true},
	}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLmixed")
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })

	p := reg.Progress(id)
	if got := p.Items()[1].Percent; got != model.FailedPercent {
		t.Errorf("failed item percent = %d, expected -1", got)
	}

	name, _ := reg.Filename(id)
	zr, err := zip.OpenReader(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("OpenReader() returned error: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 2 {
		t.Errorf("archive holds %d entries, expected the 2 successful items", len(zr.File))
	}
}

func TestOrchestrator_PlaylistAllItemsFail(t *testing.T) {
	dir := t.TempDir()
	entries := entriesForTest(2)
	ex := &fakeExtractor{
		dir:      dir,
		entries:  entries,
		failURLs: map[string]bool{entries[0].URL: true, entries[1].URL: true},
	}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLdoomed")
	waitFor(t, func() bool { return reg.Progress(id).Global() == model.FailedPercent })

	if _, ok := reg.Filename(id); ok {
		t.Error("Filename() set for playlist with no successful items")
	}
}

func TestOrchestrator_PlaylistCapsEntries(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{dir: dir, entries: entriesForTest(30)}
	reg := registry.New()
	o := NewOrchestrator(reg, ex, &fakeTranscoder{available: true}, dir, 20, 3)

	id := o.Start("https://www.youtube.com/playlist?list=PLhuge")
	waitFor(t, func() bool {
		p := reg.Progress(id)
		return p.Kind() == model.KindComposite && len(p.Items()) > 0
	})

	if got := len(reg.Progress(id).Items()); got != 20 {
		t.Errorf("playlist tracked %d items, expected cap at 20", got)
	}
	waitFor(t, func() bool { return reg.Progress(id).Global() == 100 })
}
