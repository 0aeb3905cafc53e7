package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/audiograb/audiograb/internal/download"
	"github.com/audiograb/audiograb/internal/platform"
)

type linkRequest struct {
	Link string `json:"link"`
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleInfo(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Link == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "link is required"})
		return
	}

	if download.IsPlaylistLink(req.Link) {
		link := req.Link
		if id := download.PlaylistID(req.Link); id != "" {
			link = download.CanonicalPlaylistURL(id)
		}
		info, err := s.extractor.FlatInfo(c.Request.Context(), link, infoEntryLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		titles := make([]string, 0, len(info.Entries))
		for _, entry := range info.Entries {
			titles = append(titles, entry.Title)
		}
		c.JSON(http.StatusOK, gin.H{
			"title":       info.Title,
			"is_playlist": true,
			"entries":     titles,
		})
		return
	}

	info, err := s.extractor.Info(c.Request.Context(), req.Link)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":       info.Title,
		"is_playlist": false,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	results, cached := s.cache.Lookup(req.Query)
	if !cached {
		var err error
		results, err = s.extractor.Search(c.Request.Context(), req.Query, s.cfg.SearchLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.cache.Store(req.Query, results)
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "cached": cached})
}

func (s *Server) handleOffline(c *gin.Context) {
	files, err := platform.ListArtifacts(s.cfg.DownloadDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) handleStream(c *gin.Context) {
	s.streamer.Serve(c.Writer, c.Request, c.Param("id"), c.Query("url"))
}

func (s *Server) handleStart(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Link == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "link is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": s.starter.Start(req.Link)})
}

func (s *Server) handleProgress(c *gin.Context) {
	id := c.Param("id")
	name, _ := s.registry.Filename(id)
	c.JSON(http.StatusOK, gin.H{
		"progress": s.registry.Progress(id),
		"filename": name,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	filename := c.Param("filename")
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}

	path := filepath.Join(s.cfg.DownloadDir, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, filename)
}
