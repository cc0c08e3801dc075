// Package thumbnail turns encoded images into small JPEG previews.
//
// The source is scaled to fit inside a bounding box while keeping its
// aspect ratio. Images that already fit are never enlarged. Transparent
// areas are flattened onto white because JPEG has no alpha channel.
//
// Decoders for JPEG, PNG, GIF and WebP are registered on import.
package thumbnail
