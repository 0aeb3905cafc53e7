// Package server exposes the HTTP surface: metadata, search, download tasks,
// progress polling, streaming and artifact retrieval.
package server

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/audiograb/audiograb/internal/config"
	"github.com/audiograb/audiograb/internal/model"
	"github.com/audiograb/audiograb/internal/registry"
	"github.com/audiograb/audiograb/internal/search"
)

// infoEntryLimit caps how many playlist rows the info endpoint resolves.
const infoEntryLimit = 10

// Extractor resolves media metadata and runs searches.
type Extractor interface {
	Info(ctx context.Context, link string) (*model.MediaInfo, error)
	FlatInfo(ctx context.Context, link string, limit int) (*model.MediaInfo, error)
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// Starter launches asynchronous download tasks.
type Starter interface {
	Start(link string) string
}

// Streamer writes a playable audio response for a video id.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, videoID, fullURL string)
}

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	registry  *registry.Registry
	extractor Extractor
	starter   Starter
	streamer  Streamer
	cache     *search.Cache
}

// New wires the HTTP server.
func New(cfg *config.Config, reg *registry.Registry, ex Extractor, st Starter, sm Streamer, cache *search.Cache) *Server {
	return &Server{
		cfg:       cfg,
		registry:  reg,
		extractor: ex,
		starter:   st,
		streamer:  sm,
		cache:     cache,
	}
}

// Router builds the gin engine with permissive CORS.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	r.Use(cors.New(corsCfg))

	r.POST("/info", s.handleInfo)
	r.POST("/search", s.handleSearch)
	r.GET("/offline", s.handleOffline)
	r.GET("/stream/:id", s.handleStream)
	r.POST("/baixar", s.handleStart)
	r.GET("/progress/:id", s.handleProgress)
	r.GET("/download/:filename", s.handleDownload)

	return r
}
