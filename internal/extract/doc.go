// Package extract wraps yt-dlp for metadata dumps, search, playlist
// enumeration and media downloads.
package extract
