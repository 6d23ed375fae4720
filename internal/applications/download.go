package applications

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"jobboard/internal/backend"
	"jobboard/internal/metrics"
	"jobboard/internal/models"
)

// CVFile is a downloaded CV ready to be streamed to the admin.
type CVFile struct {
	*backend.Object
	Key      string
	Filename string
}

// Downloader fetches CV bytes for stored applications.
type Downloader struct {
	storage backend.ObjectStorage
}

// NewDownloader reads from storage.
func NewDownloader(storage backend.ObjectStorage) *Downloader {
	return &Downloader{storage: storage}
}

// Download resolves the object behind app's CV URL. The caller closes Body.
func (d *Downloader) Download(ctx context.Context, app models.Application) (*CVFile, error) {
	key, err := KeyFromURL(app.CVURL, d.storage.Bucket())
	if err != nil {
		return nil, err
	}
	obj, err := d.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			metrics.CVDownloads.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, &StorageNotFoundError{Key: key, Err: err}
		}
		metrics.CVDownloads.WithLabelValues(metrics.OutcomeDownloadFail).Inc()
		return nil, &DownloadError{Err: err}
	}
	metrics.CVDownloads.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &CVFile{
		Object:   obj,
		Key:      key,
		Filename: DownloadFilename(app.ApplicantName, app.CVURL),
	}, nil
}

// KeyFromURL strips everything up to and including "<bucket>/" from cvURL.
// A URL without that prefix is a ValidationError.
func KeyFromURL(cvURL, bucket string) (string, error) {
	marker := strings.Trim(bucket, "/") + "/"
	_, rest, ok := strings.Cut(cvURL, marker)
	if !ok || rest == "" || marker == "/" {
		return "", validationf("invalid CV URL")
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", validationf("invalid CV URL")
	}
	return key, nil
}

// DownloadFilename is <Name_With_Underscores>_CV.<ext>, with ext taken from
// the last path segment of cvURL.
func DownloadFilename(applicantName, cvURL string) string {
	last := cvURL
	if u, err := url.Parse(cvURL); err == nil && u.Path != "" {
		last = u.Path
	}
	ext := FileExtension(path.Base(last))
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(applicantName), "_")
	if name == "" {
		name = "applicant"
	}
	return name + "_CV." + ext
}
