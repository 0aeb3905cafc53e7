package platform

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const maxTitleLen = 60

var unsafeTitleRe = regexp.MustCompile(`[^\w\-. ]`)

// CreateDirectoryIfNotExists ensures dir exists.
func CreateDirectoryIfNotExists(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeTitle maps an arbitrary media title to a filesystem-safe fragment.
// Unsafe runes become underscores and the result is truncated.
func SafeTitle(title string) string {
	safe := unsafeTitleRe.ReplaceAllString(title, "_")
	safe = strings.TrimSpace(safe)
	if len(safe) > maxTitleLen {
		safe = safe[:maxTitleLen]
	}
	if safe == "" {
		safe = "audio"
	}
	return safe
}

// Artifact is one completed download available for retrieval.
type Artifact struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// ListArtifacts returns the finished audio files and archives under dir.
// Temp and partial files are excluded by extension.
func ListArtifacts(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".mp3" && ext != ".zip" {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
		})
	}
	return artifacts, nil
}
