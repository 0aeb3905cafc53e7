package model

// FormatCandidate is one audio encoding advertised by the extraction tool.
// Transient: produced per request, never persisted.
type FormatCandidate struct {
	FormatID string  `json:"format_id"`
	ACodec   string  `json:"acodec"`
	ABR      float64 `json:"abr"`
	Ext      string  `json:"ext"`
	Protocol string  `json:"protocol"`
	URL      string  `json:"url"`
}

// HasAudio reports whether the candidate actually carries an audio stream.
func (f FormatCandidate) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// FlatEntry is one row of a flat (non-downloading) playlist extraction.
type FlatEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// MediaInfo is the metadata dump for a single video or a flat playlist.
type MediaInfo struct {
	ID        string            `json:"id"`
	Type      string            `json:"_type"`
	Title     string            `json:"title"`
	Duration  float64           `json:"duration"`
	Thumbnail string            `json:"thumbnail"`
	Formats   []FormatCandidate `json:"formats"`
	Entries   []FlatEntry       `json:"entries"`
}

// SearchResult is the fixed record shape served by the search endpoint.
type SearchResult struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// PlaylistEntry is a resolvable playlist item handed to the orchestrator.
type PlaylistEntry struct {
	Title string
	URL   string
}

// RawAudio is a downloaded, not-yet-transcoded media file.
type RawAudio struct {
	Path  string
	Title string
}
