package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"jobboard/internal/backend"
)

// cachePolicy is implemented by storage that records Cache-Control per
// object.
type cachePolicy interface {
	CacheControl(key string) string
}

// handlePublicObject serves objects of the configured bucket at their
// public URL.
func (s *Server) handlePublicObject(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeServiceError(w, r, notConfigured("object storage"))
		return
	}
	bucket := r.PathValue("bucket")
	key := r.PathValue("key")
	if bucket != s.storage.Bucket() || strings.TrimSpace(key) == "" {
		s.writeServiceError(w, r, notFoundCode(errors.New("Object not found"), ErrCodeCVNotFound))
		return
	}

	obj, err := s.storage.Download(r.Context(), key)
	if err != nil {
		if backend.KindOf(err) == backend.KindNotFound {
			s.writeServiceError(w, r, notFoundCode(errors.New(backend.Message(err)), ErrCodeCVNotFound))
			return
		}
		var be *backend.Error
		if !errors.As(err, &be) {
			s.writeServiceError(w, r, badRequestCode(err, ErrCodeInvalidArgument))
			return
		}
		s.writeStoreError(w, r, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if cp, ok := s.storage.(cachePolicy); ok {
		if seconds := strings.TrimSpace(cp.CacheControl(key)); seconds != "" {
			w.Header().Set("Cache-Control", "public, max-age="+seconds)
		}
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log().Warn("object stream interrupted", "key", key, "error", err)
	}
}
