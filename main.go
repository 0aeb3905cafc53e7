package main

import (
	"log"

	"github.com/audiograb/audiograb/internal/config"
	"github.com/audiograb/audiograb/internal/download"
	"github.com/audiograb/audiograb/internal/extract"
	"github.com/audiograb/audiograb/internal/platform"
	"github.com/audiograb/audiograb/internal/registry"
	"github.com/audiograb/audiograb/internal/search"
	"github.com/audiograb/audiograb/internal/server"
	"github.com/audiograb/audiograb/internal/stream"
	"github.com/audiograb/audiograb/internal/transcode"
)

func main() {
	cfg := config.Load()

	if err := platform.CreateDirectoryIfNotExists(cfg.DownloadDir); err != nil {
		log.Fatalf("[startup]: create download dir %s: %v", cfg.DownloadDir, err)
	}

	reg := registry.New()
	extractor := extract.NewClient(cfg.DownloadDir, cfg.ExtractTimeout)
	transcoder := transcode.NewRunner(cfg.FFmpegPath, cfg.FFprobePath, cfg.TranscodeTimeout)
	orchestrator := download.NewOrchestrator(reg, extractor, transcoder, cfg.DownloadDir, cfg.MaxPlaylistItems, cfg.PlaylistWorkers)
	proxy := stream.NewProxy(extractor, extractor, transcoder, cfg.DownloadDir, cfg.StreamTimeout)
	cache := search.NewCache(cfg.SearchCacheTTL)

	srv := server.New(cfg, reg, extractor, orchestrator, proxy, cache)

	log.Printf("listening on %s (debug=%v)", cfg.Addr(), cfg.Debug)
	if err := srv.Router().Run(cfg.Addr()); err != nil {
		log.Fatalf("[startup]: %v", err)
	}
}
