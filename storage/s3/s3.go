// Package s3 stores objects in Amazon S3 or an S3-compatible service such
// as MinIO.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(ctx, cfg)
	})
}

var _ storage.Storage = (*Storage)(nil)

// Storage maps keys to objects named prefix+key in one bucket.
type Storage struct {
	client *awss3.Client
	bucket string
	prefix string
}

// NewStorage builds a client from the default AWS chain. Static keys in cfg
// take precedence over the chain. A custom endpoint switches to path-style
// addressing.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return New(client, cfg.Bucket, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *awss3.Client, bucket, prefix string) *Storage {
	return &Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *Storage) objectKey(key string) *string {
	return aws.String(s.prefix + strings.TrimPrefix(key, "/"))
}

func fail(op, key string, err error) error {
	return fmt.Errorf("storage/s3: %s %s: %w", op, key, err)
}

// Upload puts r as the object body. Bodies that cannot seek are read into
// memory first since SigV4 signs a hash of the payload.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader) error {
	body, seekable := r.(io.ReadSeeker)
	if !seekable {
		data, err := io.ReadAll(r)
		if err != nil {
			return fail("read body", key, err)
		}
		body = bytes.NewReader(data)
	}
	in := &awss3.PutObjectInput{Bucket: &s.bucket, Key: s.objectKey(key), Body: body}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fail("put", key, err)
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{Bucket: &s.bucket, Key: s.objectKey(key)})
	var missing *types.NoSuchKey
	switch {
	case stderrors.As(err, &missing):
		return nil, storage.ErrNotFound(key).WithCause(err)
	case err != nil:
		return nil, fail("get", key, err)
	}
	return out.Body, nil
}

// Delete succeeds for missing keys, as S3 does.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: &s.bucket, Key: s.objectKey(key)}); err != nil {
		return fail("delete", key, err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: &s.bucket, Key: s.objectKey(key)})
	var missing *types.NotFound
	switch {
	case err == nil:
		return true, nil
	case stderrors.As(err, &missing):
		return false, nil
	}
	return false, fail("head", key, err)
}

// URL is the path-style location of key on the configured endpoint.
func (s *Storage) URL(_ context.Context, key string) (string, error) {
	return s.endpoint() + "/" + s.bucket + "/" + *s.objectKey(key), nil
}

// List pages through the bucket below prefix. Keys are returned relative to
// the storage prefix, in the lexicographic order S3 lists them.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	pages := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: s.objectKey(prefix),
	})
	objects := []storage.Object{}
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fail("list", prefix, err)
		}
		for _, o := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(o.Key), s.prefix)
			objects = append(objects, storage.Object{
				Key:         key,
				Size:        aws.ToInt64(o.Size),
				Modified:    aws.ToTime(o.LastModified),
				ContentType: mime.TypeByExtension(path.Ext(key)),
			})
		}
	}
	return objects, nil
}

func (s *Storage) endpoint() string {
	opts := s.client.Options()
	if ep := aws.ToString(opts.BaseEndpoint); ep != "" {
		return strings.TrimRight(ep, "/")
	}
	return "https://s3." + opts.Region + ".amazonaws.com"
}
