package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"jobboard/internal/api"
	"jobboard/internal/applications"
	"jobboard/internal/backend"
	"jobboard/internal/validation"
)

const (
	defaultJSONMaxBody = 1 << 20 // 1 MiB
	// multipartOverhead covers form fields and part headers around the CV.
	multipartOverhead = 64 << 10
	maxIDLength       = 128
)

// writeErrorReq writes the JSON error envelope. 5xx messages are replaced
// with "internal error" so store details never reach the client.
func (s *Server) writeErrorReq(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	resp := errorEnvelope(status, err)

	level := slog.LevelDebug
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		level = slog.LevelWarn
	}
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		resp.Error = "internal error"
	}
	attrs := []slog.Attr{
		slog.Int("status", status),
		slog.String("code", resp.Code),
		slog.Int("error_code", resp.ErrorCode),
		slog.Any("error", err),
	}
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
		attrs = append(attrs, slog.String("method", r.Method), slog.String("path", r.URL.Path))
	}
	s.log().LogAttrs(ctx, level, "request error", attrs...)

	s.writeJSON(w, status, resp)
}

// errorEnvelope prefers the codes carried by an apiError and falls back to
// the per-status defaults.
func errorEnvelope(status int, err error) api.ErrorResponse {
	resp := api.ErrorResponse{Error: err.Error()}
	def := statusDefaults[status]
	resp.Code, resp.ErrorCode = def.code, def.errCode

	var apiErr apiError
	if errors.As(err, &apiErr) {
		if apiErr.code != "" {
			resp.Code = apiErr.code
		}
		if apiErr.errCode > 0 {
			resp.ErrorCode = apiErr.errCode
		}
	}
	return resp
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

type apiError struct {
	status  int
	code    string
	errCode int
	err     error
}

func (e apiError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(status int, code string, errCode int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	var existing apiError
	if errors.As(err, &existing) {
		if existing.status != 0 {
			return existing
		}
	}

	return apiError{status: status, code: code, errCode: errCode, err: err}
}

func badRequest(err error) error {
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func badRequestCode(err error, code int) error {
	return makeAPIError(http.StatusBadRequest, "invalid_argument", code, err)
}

func notFoundCode(err error, code int) error {
	return makeAPIError(http.StatusNotFound, "not_found", code, err)
}

func conflictCode(err error, code int) error {
	return makeAPIError(http.StatusConflict, "conflict", code, err)
}

func unauthorized(err error) error {
	return makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUnauthorized, err)
}

func internalCode(err error, code int) error {
	return makeAPIError(http.StatusInternalServerError, "internal", code, err)
}

func storeFailure(err error) error {
	return internalCode(err, ErrCodeStoreFailure)
}

func notConfigured(what string) error {
	return makeAPIError(http.StatusServiceUnavailable, "unavailable", ErrCodeBackendNotReady, fmt.Errorf("%s is not configured", what))
}

// backendError maps a tagged backend error to an HTTP error. notFound is the
// numeric code used when the row does not exist.
func backendError(err error, notFound int) error {
	switch backend.KindOf(err) {
	case backend.KindNotFound:
		return notFoundCode(errors.New(backend.Message(err)), notFound)
	case backend.KindConflict:
		return conflictCode(errors.New(backend.Message(err)), ErrCodeConflict)
	case backend.KindUnauthorized:
		return unauthorized(errors.New(backend.Message(err)))
	default:
		return storeFailure(err)
	}
}

// applicationError maps submission and download errors to HTTP errors.
func applicationError(err error) error {
	var (
		validationErr *applications.ValidationError
		uploadErr     *applications.UploadError
		recordErr     *applications.RecordCreationError
		missingErr    *applications.StorageNotFoundError
		downloadErr   *applications.DownloadError
	)
	switch {
	case errors.As(err, &validationErr):
		return badRequestCode(err, ErrCodeInvalidCVFile)
	case errors.As(err, &uploadErr):
		return internalCode(err, ErrCodeUploadFailed)
	case errors.As(err, &recordErr):
		return internalCode(err, ErrCodeRecordFailed)
	case errors.As(err, &missingErr):
		return notFoundCode(err, ErrCodeCVNotFound)
	case errors.As(err, &downloadErr):
		return internalCode(err, ErrCodeDownloadFailed)
	default:
		return internalCode(err, ErrCodeInternal)
	}
}

func httpStatusFromError(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}

// readJSONBody reads a bounded request body.
func readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(defaultJSONMaxBody))
	return io.ReadAll(r.Body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(defaultJSONMaxBody))
	return json.NewDecoder(r.Body).Decode(dst)
}

func classifyDecodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequestCode(fmt.Errorf("invalid JSON payload"), ErrCodeInvalidJSON)
	}

	var schemaErr *validation.Error
	if errors.As(err, &schemaErr) {
		return badRequestCode(err, ErrCodeInvalidPayload)
	}

	return badRequestCode(err, ErrCodeInvalidJSON)
}

func (s *Server) decodeJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

// decodeValidatedJSON checks the body against schema before decoding it.
func (s *Server) decodeValidatedJSON(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := readJSONBody(w, r)
	if err == nil {
		err = validation.Validate(schema, body)
	}
	if err == nil {
		err = json.Unmarshal(body, dst)
	}
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorReq(w, r, httpStatusFromError(err), err)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorReq(w, r, http.StatusInternalServerError, storeFailure(err))
}

func (s *Server) pathIDOrBadRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return "", false
	}
	return id, true
}

func requirePathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !validateID(id) {
		return "", badRequestCode(fmt.Errorf("invalid id"), ErrCodeInvalidID)
	}
	return id, nil
}

func validateID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func valueOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return strings.TrimSpace(*ptr)
}
