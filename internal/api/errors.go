package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the server. Code and ErrorCode come
// from the JSON error envelope when the body carried one.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Code == "" {
		return msg
	}
	return e.Code + ": " + msg
}

// Enveloped reports whether the response carried the server's error JSON.
// A bare status usually means api_url points at something else.
func (e *APIError) Enveloped() bool {
	return e != nil && e.Code != ""
}

// AsAPIError unwraps err to the first *APIError in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err wraps a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// errorFromResponse builds an APIError from a failed response. Bodies that
// are not the error envelope fall back to the status line.
func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope ErrorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		apiErr.Code = envelope.Code
		apiErr.ErrorCode = envelope.ErrorCode
		apiErr.Message = envelope.Error
		return apiErr
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.ContainsAny(text, "<{") {
		apiErr.Message = fmt.Sprintf("api error: %s: %s", resp.Status, text)
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}
