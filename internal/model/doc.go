// Package model defines domain data structures shared across the service:
// task progress variants, media metadata returned by the extraction tool,
// and search result records. Progress is a tagged variant so consumers
// switch on the kind instead of type-checking at runtime.
package model
