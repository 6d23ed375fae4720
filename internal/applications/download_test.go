package applications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jobboard/internal/backend"
	"jobboard/internal/models"
)

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "public url", url: "http://h/storage/v1/object/public/cv-uploads/public/a-Jane-Doe.pdf", want: "public/a-Jane-Doe.pdf"},
		{name: "escaped", url: "http://h/storage/v1/object/public/cv-uploads/public/a-Jane%20Doe.pdf", want: "public/a-Jane Doe.pdf"},
		{name: "query dropped", url: "http://h/cv-uploads/public/a.pdf?download=1", want: "public/a.pdf"},
		{name: "missing bucket", url: "http://h/other/public/a.pdf", wantErr: true},
		{name: "nothing after bucket", url: "http://h/cv-uploads/", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromURL(tt.url, "cv-uploads")
			if tt.wantErr {
				if !IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("KeyFromURL=%q want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadFilename(t *testing.T) {
	got := DownloadFilename("Jane  Mary Doe", "http://h/cv-uploads/public/x-Jane-Mary-Doe.DOCX")
	if got != "Jane_Mary_Doe_CV.docx" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name, applicant, file, want string
	}{
		{name: "spaces", applicant: "Jane  Doe", file: "resume.PDF", want: "public/tok-Jane-Doe.pdf"},
		{name: "slashes", applicant: "a/../b", file: "cv.doc", want: "public/tok-a-..-b.doc"},
		{name: "double extension", applicant: "Jo", file: "cv.final.docx", want: "public/tok-Jo.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StorageKey("tok", tt.applicant, tt.file); got != tt.want {
				t.Fatalf("StorageKey=%q want %q", got, tt.want)
			}
		})
	}
}

func TestNewTokenAndFallback(t *testing.T) {
	if a, b := NewToken(), NewToken(); a == b || len(a) != 36 {
		t.Fatalf("expected distinct uuids, got %q %q", a, b)
	}
	token := fallbackToken(time.UnixMilli(1700000000000))
	prefix, suffix, ok := strings.Cut(token, "-")
	if !ok || prefix != "1700000000000" || len(suffix) != fallbackSuffixLen {
		t.Fatalf("unexpected fallback token %q", token)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(base36Alphabet, r) {
			t.Fatalf("unexpected rune %q in %q", r, token)
		}
	}
}

func TestDownloadErrors(t *testing.T) {
	storage := newFakeStorage()
	d := NewDownloader(storage)
	ctx := context.Background()

	_, err := d.Download(ctx, models.Application{CVURL: "http://elsewhere/file.pdf"})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(storage.calls) != 0 {
		t.Fatalf("expected no storage call for malformed url, got %v", storage.calls)
	}

	_, err = d.Download(ctx, models.Application{ApplicantName: "Jane", CVURL: storage.PublicURL("public/gone.pdf")})
	var nf *StorageNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected StorageNotFoundError, got %v", err)
	}
	if err.Error() != StorageNotFoundMessage {
		t.Fatalf("unexpected message %q", err.Error())
	}

	failing := &failingStorage{fakeStorage: newFakeStorage()}
	_, err = NewDownloader(failing).Download(ctx, models.Application{CVURL: failing.PublicURL("public/x.pdf")})
	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if err.Error() != "failed to download CV: permission denied" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

type failingStorage struct {
	*fakeStorage
}

func (f *failingStorage) Download(context.Context, string) (*backend.Object, error) {
	return nil, backend.Wrap("download", errors.New("permission denied"))
}
