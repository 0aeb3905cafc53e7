// Package download orchestrates audio download tasks: single videos and
// playlists fanned out over a bounded worker pool, with progress reported
// through the task registry.
package download
