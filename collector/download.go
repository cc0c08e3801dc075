package collector

import (
	"context"
	"strconv"

	"github.com/kbukum/previewkit/httpclient"
)

// Fetcher downloads one URL. *httpclient.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httpclient.Response, error)
}

// Download is a fetched source image.
type Download struct {
	// Line is the input line the URL was read from.
	Line        int
	URL         string
	Body        []byte
	ContentType string
	// Size is the advertised Content-Length, or the body length when the
	// server did not send one.
	Size int64
}

// Units reports the download size so the pipeline can total the bytes.
func (d *Download) Units() int64 { return d.Size }

func newDownload(src Source, resp *httpclient.Response) *Download {
	size := int64(len(resp.Body))
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n >= 0 {
			size = n
		}
	}
	return &Download{
		Line:        src.Line,
		URL:         src.URL,
		Body:        resp.Body,
		ContentType: resp.ContentType(),
		Size:        size,
	}
}
