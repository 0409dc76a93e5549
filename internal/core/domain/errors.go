package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Client-side Validation Errors
// ============================================================================

var (
	ErrNoFilesSelected     = errors.New("please select files to upload")
	ErrNotAFolderSelection = errors.New("files were not selected from a folder")
	ErrMixedSelectionModes = errors.New("raw and vectorized groups must use the same selection mode")
	ErrIncompleteBoth      = errors.New("both raw and vectorized files are required")
	ErrInvalidDatasetType  = errors.New("dataset type must be raw, vectorized or both")
	ErrInvalidFileType     = errors.New("file type must be image, audio, text or video")
	ErrInvalidPromptName   = errors.New("prompt name may only contain letters, digits and underscores")
	ErrNameNotConfirmed    = errors.New("dataset name has not been confirmed available")
)

// MissingFieldError reports an empty required form field.
type MissingFieldError struct {
	Field string
	Label string
}

func (e *MissingFieldError) Error() string {
	if e.Label != "" {
		return e.Label + " is required"
	}
	return e.Field + " is required"
}

// InvalidFileTypeError lists every file whose extension is not allowed.
type InvalidFileTypeError struct {
	Names    []string
	Expected []string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("invalid file types detected: %s (allowed: %s)",
		strings.Join(e.Names, ", "), strings.Join(e.Expected, ", "))
}

// InvalidNumericFieldError is returned when a numeric form field does not
// parse as an integer.
type InvalidNumericFieldError struct {
	Field string
	Value string
}

func (e *InvalidNumericFieldError) Error() string {
	return fmt.Sprintf("%s must be an integer, got %q", e.Field, e.Value)
}

// IsValidation reports whether err is a client-side validation failure
// that must never reach the network layer.
func IsValidation(err error) bool {
	var (
		missing *MissingFieldError
		fileErr *InvalidFileTypeError
		numErr  *InvalidNumericFieldError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &fileErr), errors.As(err, &numErr):
		return true
	case errors.Is(err, ErrNoFilesSelected),
		errors.Is(err, ErrNotAFolderSelection),
		errors.Is(err, ErrMixedSelectionModes),
		errors.Is(err, ErrIncompleteBoth),
		errors.Is(err, ErrInvalidDatasetType),
		errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrInvalidPromptName),
		errors.Is(err, ErrNameNotConfirmed):
		return true
	}
	return false
}

// ============================================================================
// Identity & Conflict Errors
// ============================================================================

var (
	ErrNotAuthenticated = errors.New("user must be authenticated")
	ErrForbidden        = errors.New("token subject does not match user")
	ErrNameConflict     = errors.New("dataset name already exists")
	ErrPromptConflict   = errors.New("prompt with this name already exists")
	ErrUsernameTaken    = errors.New("username already taken")
)

// ============================================================================
// Server Errors
// ============================================================================

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameMissing     = errors.New("username not found")
	ErrDatasetNotFound     = errors.New("dataset not found")
	ErrMissingUID          = errors.New("user ID is required")
	ErrMissingLicense      = errors.New("license is required")
	ErrInvalidDatasetInfo  = errors.New("dataset info is not valid JSON")
	ErrContentTypeMismatch = errors.New("file content does not match the declared file type")
	ErrInvalidCategory     = errors.New("category is required")
	ErrBlobStorageFailed   = errors.New("blob storage operation failed")
)

// ============================================================================
// Transport Errors
// ============================================================================

// APIError is a non-2xx (or malformed) response from the REST API.
// Message carries the server's own message when it provided one.
type APIError struct {
	StatusCode int
	Message    string
	Op         string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// ServerMessage returns the message the server supplied, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
