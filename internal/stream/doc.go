// Package stream serves audio either by relaying the upstream media URL or,
// when the chosen format is segmented, by downloading to a temp file and
// serving byte ranges from disk.
package stream
