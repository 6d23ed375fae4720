// Package applications implements the applicant submission workflow and the
// admin CV download.
package applications

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMaxCVBytes is the CV size ceiling (5 MiB).
const DefaultMaxCVBytes int64 = 5 << 20

// AllowedExtensions are the accepted CV file types.
var AllowedExtensions = []string{"pdf", "doc", "docx"}

// File is one selected CV. Open may be called more than once so a failed
// submission can be retried with the same selection.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath wraps content already written to path.
func FileFromPath(name, contentType, path string, size int64) *File {
	return &File{
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Form holds the applicant's input between selection and submission.
type Form struct {
	Name  string
	Email string
	File  *File

	maxBytes int64
}

// NewForm returns an empty form with the given CV ceiling; non-positive
// values use DefaultMaxCVBytes.
func NewForm(maxBytes int64) *Form {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxCVBytes
	}
	return &Form{maxBytes: maxBytes}
}

// MaxBytes returns the CV ceiling.
func (f *Form) MaxBytes() int64 {
	return f.maxBytes
}

// SelectFile validates file and makes it the current selection. A rejected
// file clears any previous selection.
func (f *Form) SelectFile(file *File) error {
	if file == nil {
		f.File = nil
		return nil
	}
	if file.Size > f.maxBytes {
		f.File = nil
		return validationf(fmt.Sprintf("CV file must be %s or smaller", formatMiB(f.maxBytes)))
	}
	if !allowedExtension(FileExtension(file.Name)) {
		f.File = nil
		return validationf("CV must be a " + strings.ToUpper(strings.Join(AllowedExtensions, ", ")) + " file")
	}
	f.File = file
	return nil
}

// Reset clears every field.
func (f *Form) Reset() {
	f.Name = ""
	f.Email = ""
	f.File = nil
}

func (f *Form) validate() error {
	if f.File == nil {
		return validationf("please upload your CV")
	}
	if strings.TrimSpace(f.Name) == "" {
		return validationf("full name is required")
	}
	if strings.TrimSpace(f.Email) == "" {
		return validationf("email is required")
	}
	return nil
}

func allowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func formatMiB(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
