// Package objectstore is the on-disk object bucket used for CV files.
package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"jobboard/internal/backend"
)

// PublicPathPrefix is the URL path under which public objects are served.
const PublicPathPrefix = "/storage/v1/object/public/"

// LocalBucket stores objects for one bucket in a local directory tree.
type LocalBucket struct {
	root    string
	bucket  string
	baseURL string
}

type objectMeta struct {
	ContentType  string `json:"content_type,omitempty"`
	CacheControl string `json:"cache_control,omitempty"`
}

var _ backend.ObjectStorage = (*LocalBucket)(nil)

// NewLocalBucket creates a bucket rooted at root/<bucket>. baseURL prefixes
// the public URLs it hands out.
func NewLocalBucket(root, bucket, baseURL string) (*LocalBucket, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("object storage root is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return nil, fmt.Errorf("invalid bucket name %q", bucket)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{
		filepath.Join(abs, bucket),
		filepath.Join(abs, "tmp"),
		filepath.Join(abs, ".meta", bucket),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalBucket{
		root:    abs,
		bucket:  bucket,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

// Bucket returns the bucket name.
func (b *LocalBucket) Bucket() string {
	return b.bucket
}

// Upload streams r to key. Without opts.Upsert an existing key fails with a
// Conflict error and the stored bytes are left untouched.
func (b *LocalBucket) Upload(ctx context.Context, key string, r io.Reader, opts backend.UploadOptions) error {
	if b == nil {
		return fmt.Errorf("object storage is not configured")
	}
	if r == nil {
		return fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := b.pathFromKey(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(b.root, "tmp"), "upload-*")
	if err != nil {
		return backend.Wrap("upload", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return backend.Wrap("upload", err)
	}
	if err := tmp.Close(); err != nil {
		return backend.Wrap("upload", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return backend.Wrap("upload", err)
	}

	if opts.Upsert {
		if err := os.Rename(tmpPath, dst); err != nil {
			return backend.Wrap("upload", err)
		}
	} else {
		// Link fails when dst exists, so a concurrent writer cannot be clobbered.
		if err := os.Link(tmpPath, dst); err != nil {
			if errors.Is(err, os.ErrExist) {
				return backend.Conflict("upload", "The resource already exists")
			}
			return backend.Wrap("upload", err)
		}
	}

	err = b.writeMeta(key, objectMeta{
		ContentType:  contentTypeFor(key, opts.ContentType),
		CacheControl: opts.CacheControl,
	})
	if err != nil && !opts.Upsert {
		_ = os.Remove(dst)
	}
	return err
}

// Download opens key for reading. Missing keys fail with NotFound.
func (b *LocalBucket) Download(ctx context.Context, key string) (*backend.Object, error) {
	if b == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, backend.NotFound("download", "Object not found")
	}
	if err != nil {
		return nil, backend.Wrap("download", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, backend.Wrap("download", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, backend.NotFound("download", "Object not found")
	}
	meta := b.readMeta(key)
	return &backend.Object{
		Body:        f,
		Size:        info.Size(),
		ContentType: contentTypeFor(key, meta.ContentType),
	}, nil
}

// CacheControl returns the cache policy recorded at upload time.
func (b *LocalBucket) CacheControl(key string) string {
	return b.readMeta(key).CacheControl
}

// PublicURL returns the URL the object is served from. Each key segment is
// path-escaped.
func (b *LocalBucket) PublicURL(key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + PublicPathPrefix + url.PathEscape(b.bucket) + "/" + strings.Join(segments, "/")
}

// Remove deletes keys. Missing keys are ignored.
func (b *LocalBucket) Remove(ctx context.Context, keys ...string) error {
	if b == nil {
		return fmt.Errorf("object storage is not configured")
	}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := b.pathFromKey(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return backend.Wrap("remove", err)
		}
		if mp, err := b.metaPath(key); err == nil {
			_ = os.Remove(mp)
		}
	}
	return nil
}

func (b *LocalBucket) writeMeta(key string, meta objectMeta) error {
	mp, err := b.metaPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(mp), 0o755); err != nil {
		return backend.Wrap("upload", err)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(mp, data, 0o644); err != nil {
		return backend.Wrap("upload", err)
	}
	return nil
}

func (b *LocalBucket) readMeta(key string) objectMeta {
	var meta objectMeta
	mp, err := b.metaPath(key)
	if err != nil {
		return meta
	}
	data, err := os.ReadFile(mp)
	if err != nil {
		return meta
	}
	_ = json.Unmarshal(data, &meta)
	return meta
}

func (b *LocalBucket) metaPath(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, ".meta", b.bucket, clean+".json"), nil
}

func (b *LocalBucket) pathFromKey(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, b.bucket, clean), nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("object key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key")
	}
	return clean, nil
}

func contentTypeFor(key, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
