// Package collector downloads images listed in a URL file and stores a JPEG
// thumbnail of each one.
//
// Downloads run on the producer pool of a pipeline and thumbnails are made
// and persisted on its consumer pool. Every thumbnail is named after the
// line number of its URL in the list, so the output can be matched back to the
// input regardless of completion order. A manifest describing the outcome
// for every URL is written next to the thumbnails.
package collector
