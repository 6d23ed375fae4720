package server

import "net/http"

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidQuery    = 1003
	ErrCodeInvalidID       = 1004
	ErrCodeInvalidCVFile   = 1005
	ErrCodeInvalidCVURL    = 1006
	ErrCodeInvalidPayload  = 1007
	ErrCodeInvalidForm     = 1008
	ErrCodeMissingRequired = 1009

	// Domain state (2xxx)
	ErrCodeJobNotFound         = 2001
	ErrCodeApplicationNotFound = 2002
	ErrCodeCVNotFound          = 2003
	ErrCodeConflict            = 2102

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal        = 4001
	ErrCodeStoreFailure    = 4002
	ErrCodeUploadFailed    = 4003
	ErrCodeRecordFailed    = 4004
	ErrCodeNotImplemented  = 4005
	ErrCodeDownloadFailed  = 4006
	ErrCodeBackendNotReady = 4007
)

// statusDefault is the error envelope used when a handler returns an error
// that carries no code of its own.
type statusDefault struct {
	code    string
	errCode int
}

var statusDefaults = map[int]statusDefault{
	http.StatusBadRequest:            {"invalid_argument", ErrCodeInvalidArgument},
	http.StatusUnauthorized:          {"unauthorized", ErrCodeUnauthorized},
	http.StatusForbidden:             {"forbidden", ErrCodeForbidden},
	http.StatusNotFound:              {"not_found", ErrCodeJobNotFound},
	http.StatusConflict:              {"conflict", ErrCodeConflict},
	http.StatusRequestEntityTooLarge: {"invalid_argument", ErrCodeRequestTooLarge},
	http.StatusTooManyRequests:       {"resource_exhausted", ErrCodeResourceExhausted},
	http.StatusInternalServerError:   {"internal", ErrCodeInternal},
	http.StatusNotImplemented:        {"unimplemented", ErrCodeNotImplemented},
	http.StatusServiceUnavailable:    {"unavailable", ErrCodeBackendNotReady},
}
