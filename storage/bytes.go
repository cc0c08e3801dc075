package storage

import (
	"bytes"
	"context"
	"io"
)

// ByteClient moves whole objects as byte slices. Thumbnails and manifests
// are built in memory, so the collector and the manifest package write
// through it rather than through streams.
type ByteClient interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// NewByteClient adapts s to ByteClient.
func NewByteClient(s Storage) ByteClient {
	return wholeObjects{Storage: s}
}

// wholeObjects overrides the streaming methods of the embedded Storage.
// Delete, Exists and List pass straight through.
type wholeObjects struct {
	Storage
}

// Upload hands the backend a *bytes.Reader, which S3 can seek and size
// without buffering again.
func (w wholeObjects) Upload(ctx context.Context, path string, data []byte) error {
	return w.Storage.Upload(ctx, path, bytes.NewReader(data))
}

func (w wholeObjects) Download(ctx context.Context, path string) ([]byte, error) {
	rc, err := w.Storage.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
