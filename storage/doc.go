// Package storage is the sink for generated artifacts. Backends register
// a factory under a provider name and are selected by Config.Provider.
//
// # Backends
//
//   - storage/local: a directory on the local filesystem (the default)
//   - storage/s3: Amazon S3 and S3-compatible services such as MinIO
//
// Import the backend for its side effect:
//
//	import _ "github.com/kbukum/previewkit/storage/local"
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "previews"
//	  prefix: "run-42/"
package storage
