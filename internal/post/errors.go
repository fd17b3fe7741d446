package post

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned for lookups and deletes of an unknown id.
	ErrNotFound = errors.New("post not found")
	// ErrMalformedTags is returned when serialized tags are not a JSON array of strings.
	ErrMalformedTags = errors.New("malformed tags")
)

// ValidationError reports required fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Title, content, and author are required"
}

// Missing returns the offending field names joined for logging.
func (e *ValidationError) Missing() string {
	return strings.Join(e.Fields, ",")
}

// UploadError is raised by the transport when an attached image is rejected
// (too large or not an image). The pipeline itself never inspects images.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string { return e.Reason }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpload reports whether err is (or wraps) an UploadError.
func IsUpload(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}
