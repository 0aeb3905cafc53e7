package stream

import (
	"sort"
	"strings"

	"github.com/audiograb/audiograb/internal/model"
)

// Selection is the chosen playback format. Direct means the upstream URL can
// be relayed as-is; otherwise the format must go through the temp-file path.
type Selection struct {
	Format model.FormatCandidate
	Direct bool
}

// segmented reports whether a protocol cannot be relayed byte-for-byte.
func segmented(protocol string) bool {
	p := strings.ToLower(protocol)
	return strings.Contains(p, "m3u8") ||
		strings.Contains(p, "dash") ||
		strings.Contains(p, "fragmented")
}

// preferred orders candidates best-first: higher bitrate, then container
// compatibility (webm and opus last).
func preferred(a, b model.FormatCandidate) bool {
	if a.ABR != b.ABR {
		return a.ABR > b.ABR
	}
	aWebm := strings.EqualFold(a.Ext, "webm")
	bWebm := strings.EqualFold(b.Ext, "webm")
	if aWebm != bWebm {
		return !aWebm
	}
	aOpus := strings.Contains(strings.ToLower(a.ACodec), "opus")
	bOpus := strings.Contains(strings.ToLower(b.ACodec), "opus")
	if aOpus != bOpus {
		return !aOpus
	}
	return false
}

// ChooseFormat picks the playback format among the advertised candidates.
// Streamable formats win; when none exists the best segmented format is
// returned with Direct=false. ok is false when nothing carries audio.
func ChooseFormat(formats []model.FormatCandidate) (sel Selection, ok bool) {
	audio := make([]model.FormatCandidate, 0, len(formats))
	for _, f := range formats {
		if f.HasAudio() {
			audio = append(audio, f)
		}
	}
	if len(audio) == 0 {
		return Selection{}, false
	}

	streamable := make([]model.FormatCandidate, 0, len(audio))
	for _, f := range audio {
		if f.URL != "" && !segmented(f.Protocol) {
			streamable = append(streamable, f)
		}
	}

	if len(streamable) > 0 {
		sort.SliceStable(streamable, func(i, j int) bool {
			return preferred(streamable[i], streamable[j])
		})
		return Selection{Format: streamable[0], Direct: true}, true
	}

	sort.SliceStable(audio, func(i, j int) bool {
		return preferred(audio[i], audio[j])
	})
	best := audio[0]
	return Selection{Format: best, Direct: best.URL != "" && !segmented(best.Protocol)}, true
}

// ContentType maps a container extension to the media type served.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case "m4a", "mp4":
		return "audio/mp4"
	case "webm", "opus":
		return "audio/webm"
	default:
		return "audio/mpeg"
	}
}
