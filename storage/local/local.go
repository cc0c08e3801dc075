// Package local stores objects as files below a base directory.
package local

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/storage"
)

const (
	dirPerm     = 0o750
	filePerm    = 0o644
	tempPattern = ".upload-*"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

var _ storage.Storage = (*Storage)(nil)

// Storage keeps each object in its own file. Keys map to paths below the
// root and can never escape it.
type Storage struct {
	root string
}

// NewStorage resolves basePath and creates it when missing.
func NewStorage(basePath string) (*Storage, error) {
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fail("resolve", basePath, err)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fail("create root", root, err)
	}
	return &Storage{root: root}, nil
}

// BasePath is the absolute root directory.
func (s *Storage) BasePath() string { return s.root }

func (s *Storage) file(key string) string {
	return filepath.Join(s.root, filepath.Clean("/"+key))
}

func fail(op, key string, err error) error {
	return fmt.Errorf("storage/local: %s %s: %w", op, key, err)
}

// Upload streams r into a temporary sibling and renames it over the
// target, so a reader sees the old object or the new one.
func (s *Storage) Upload(_ context.Context, key string, r io.Reader) (err error) {
	target := s.file(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fail("mkdir", key, err)
	}
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fail("create", key, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fail("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", key, err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fail("chmod", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fail("rename", key, err)
	}
	return nil
}

func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.file(key))
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, storage.ErrNotFound(key).WithCause(err)
	case err != nil:
		return nil, fail("open", key, err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.file(key))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fail("delete", key, err)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.file(key))
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fail("stat", key, err)
}

// URL is the file:// location of key.
func (s *Storage) URL(_ context.Context, key string) (string, error) {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(s.file(key))}).String(), nil
}

// List walks the root and returns the files whose slash-separated key has
// prefix. In-progress uploads are skipped.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.Object, error) {
	objects := []storage.Object{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storage.Object{
			Key:         key,
			Size:        info.Size(),
			Modified:    info.ModTime(),
			ContentType: contentType(path),
		})
		return nil
	})
	if err != nil {
		return nil, fail("list", prefix, err)
	}
	slices.SortFunc(objects, func(a, b storage.Object) int { return cmp.Compare(a.Key, b.Key) })
	return objects, nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
