package applications

import (
	"errors"

	"jobboard/internal/backend"
)

const (
	submitErrorPrefix   = "failed to submit application"
	downloadErrorPrefix = "failed to download CV"

	// StorageNotFoundMessage is shown when a stored CV reference points at nothing.
	StorageNotFoundMessage = "CV file not found or already deleted"
)

// ValidationError is a local, pre-network rejection.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UploadError reports a failed CV upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return submitErrorPrefix + ": upload CV: " + backend.Message(e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RecordCreationError reports a failed application insert after a successful upload.
type RecordCreationError struct {
	Err error
}

func (e *RecordCreationError) Error() string {
	return submitErrorPrefix + ": save application: " + backend.Message(e.Err)
}

func (e *RecordCreationError) Unwrap() error { return e.Err }

// StorageNotFoundError reports a CV reference whose object is gone.
type StorageNotFoundError struct {
	Key string
	Err error
}

func (e *StorageNotFoundError) Error() string { return StorageNotFoundMessage }

func (e *StorageNotFoundError) Unwrap() error { return e.Err }

// DownloadError wraps any other storage failure during a CV download.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return downloadErrorPrefix + ": " + backend.Message(e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validationf(message string) error {
	return &ValidationError{Message: message}
}
