package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobboard/internal/backend"
)

func newTestBucket(t *testing.T) *LocalBucket {
	t.Helper()
	b, err := NewLocalBucket(t.TempDir(), "cv-uploads", "http://localhost:8080/")
	if err != nil {
		t.Fatalf("new local bucket: %v", err)
	}
	return b
}

func TestLocalBucketUploadDownloadRemove(t *testing.T) {
	b := newTestBucket(t)
	ctx := context.Background()

	err := b.Upload(ctx, "public/abc-Jane-Doe.pdf", bytes.NewBufferString("hello"), backend.UploadOptions{CacheControl: "3600"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	obj, err := b.Download(ctx, "public/abc-Jane-Doe.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}
	if obj.Size != 5 {
		t.Fatalf("expected size 5, got %d", obj.Size)
	}
	if obj.ContentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", obj.ContentType)
	}
	if got := b.CacheControl("public/abc-Jane-Doe.pdf"); got != "3600" {
		t.Fatalf("expected cache control 3600, got %q", got)
	}

	if err := b.Remove(ctx, "public/abc-Jane-Doe.pdf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := b.Remove(ctx, "public/abc-Jane-Doe.pdf"); err != nil {
		t.Fatalf("remove missing should be noop: %v", err)
	}
	if _, err := b.Download(ctx, "public/abc-Jane-Doe.pdf"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestLocalBucketUploadWithoutUpsertConflicts(t *testing.T) {
	b := newTestBucket(t)
	ctx := context.Background()

	if err := b.Upload(ctx, "public/k.pdf", strings.NewReader("original"), backend.UploadOptions{}); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	err := b.Upload(ctx, "public/k.pdf", strings.NewReader("replacement"), backend.UploadOptions{})
	if !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	obj, err := b.Download(ctx, "public/k.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	if string(data) != "original" {
		t.Fatalf("expected original bytes kept, got %q", string(data))
	}

	if err := b.Upload(ctx, "public/k.pdf", strings.NewReader("replacement"), backend.UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestLocalBucketRejectsTraversal(t *testing.T) {
	b := newTestBucket(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../escape.pdf", "public/../../escape.pdf"} {
		if err := b.Upload(ctx, key, strings.NewReader("x"), backend.UploadOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestLocalBucketPublicURL(t *testing.T) {
	b := newTestBucket(t)
	got := b.PublicURL("public/abc-Jane Doe#1.pdf")
	want := "http://localhost:8080/storage/v1/object/public/cv-uploads/public/abc-Jane%20Doe%231.pdf"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNewLocalBucketValidates(t *testing.T) {
	if _, err := NewLocalBucket("", "cv-uploads", ""); err == nil {
		t.Fatal("expected error for empty root")
	}
	if _, err := NewLocalBucket(t.TempDir(), "a/b", ""); err == nil {
		t.Fatal("expected error for nested bucket name")
	}
}

func TestLocalBucketUploadLeavesNothingWhenMetadataFails(t *testing.T) {
	b := newTestBucket(t)
	ctx := context.Background()
	const key = "public/abc-Jane-Doe.pdf"

	mp, err := b.metaPath(key)
	if err != nil {
		t.Fatalf("meta path: %v", err)
	}
	if err := os.MkdirAll(mp, 0o755); err != nil {
		t.Fatalf("block meta path: %v", err)
	}
	if err := b.Upload(ctx, key, strings.NewReader("cv"), backend.UploadOptions{}); err == nil {
		t.Fatal("expected upload to fail when metadata cannot be written")
	}
	if _, err := b.Download(ctx, key); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected no object after failed upload, got %v", err)
	}

	if err := os.RemoveAll(filepath.Dir(mp)); err != nil {
		t.Fatalf("unblock meta path: %v", err)
	}
	if err := b.Upload(ctx, key, strings.NewReader("cv"), backend.UploadOptions{}); err != nil {
		t.Fatalf("retry upload: %v", err)
	}
}
