package download

import (
	"regexp"
	"strings"
)

var playlistIDRe = regexp.MustCompile(`list=([A-Za-z0-9_-]+)`)

// IsPlaylistLink reports whether the link points at a playlist rather than a
// single video.
func IsPlaylistLink(link string) bool {
	return strings.Contains(link, "playlist") || strings.Contains(link, "list=")
}

// PlaylistID extracts the playlist id from a link. Empty when absent.
func PlaylistID(link string) string {
	m := playlistIDRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalPlaylistURL rebuilds the bare playlist URL from its id, dropping
// video and index parameters that confuse flat extraction.
func CanonicalPlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}
