package errors

import "fmt"

// ErrorCode represents a voxnote error code.
type ErrorCode string

const (
	ErrCapabilityMissing ErrorCode = "CAPABILITY_MISSING" // 501
	ErrPermissionDenied  ErrorCode = "PERMISSION_DENIED"  // 403
	ErrRecognitionError  ErrorCode = "RECOGNITION_ERROR"  // 502
	ErrConnectionLost    ErrorCode = "CONNECTION_LOST"    // 502
	ErrMissingCredential ErrorCode = "MISSING_CREDENTIAL" // 400
	ErrEmptyTranscript   ErrorCode = "EMPTY_TRANSCRIPT"   // 400
	ErrSummaryFailed     ErrorCode = "SUMMARY_FAILED"     // 502
	ErrBusy              ErrorCode = "BUSY"               // 409
	ErrMalformedImport   ErrorCode = "MALFORMED_IMPORT"   // 422
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrConflict          ErrorCode = "CONFLICT"           // 409
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// VoxError represents a structured error with code, status, and details.
type VoxError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *VoxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *VoxError) Unwrap() error {
	return e.cause
}

// NewCapabilityMissing creates a 501 error when a required collaborator is unavailable.
func NewCapabilityMissing(capability string) *VoxError {
	return &VoxError{
		Code:    ErrCapabilityMissing,
		Status:  501,
		Message: fmt.Sprintf("%s is not available", capability),
		Details: map[string]any{"capability": capability},
	}
}

// NewPermissionDenied creates a 403 error for a refused microphone or device.
func NewPermissionDenied(err error) *VoxError {
	msg := "microphone access denied"
	if err != nil {
		msg = fmt.Sprintf("microphone access denied: %v", err)
	}
	return &VoxError{
		Code:    ErrPermissionDenied,
		Status:  403,
		Message: msg,
		cause:   err,
	}
}

// NewRecognitionError creates a 502 error carrying the recognizer's error code.
func NewRecognitionError(code string) *VoxError {
	return &VoxError{
		Code:    ErrRecognitionError,
		Status:  502,
		Message: fmt.Sprintf("recognition error: %s", code),
		Details: map[string]any{"recognizer_code": code},
	}
}

// NewConnectionLost creates a 502 error for an unexpected end of recognition.
func NewConnectionLost() *VoxError {
	return &VoxError{
		Code:    ErrConnectionLost,
		Status:  502,
		Message: "connection lost",
	}
}

// NewMissingCredential creates a 400 error when no summarization API key is configured.
func NewMissingCredential() *VoxError {
	return &VoxError{
		Code:    ErrMissingCredential,
		Status:  400,
		Message: "summarization API key is not set",
	}
}

// NewEmptyTranscript creates a 400 error when there is nothing to summarize.
func NewEmptyTranscript() *VoxError {
	return &VoxError{
		Code:    ErrEmptyTranscript,
		Status:  400,
		Message: "transcript is empty",
	}
}

// NewSummaryFailed creates a 502 error with the message reported by the endpoint.
func NewSummaryFailed(msg string, status int) *VoxError {
	return &VoxError{
		Code:    ErrSummaryFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"http_status": status},
	}
}

// NewBusy creates a 409 error when an exclusive operation is already in flight.
func NewBusy(operation string) *VoxError {
	return &VoxError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("%s already in progress", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewMalformedImport creates a 422 error for an import document that failed validation.
func NewMalformedImport(msg string) *VoxError {
	return &VoxError{
		Code:    ErrMalformedImport,
		Status:  422,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VoxError {
	return &VoxError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing note or folder.
func NewNotFound(kind, identifier string) *VoxError {
	return &VoxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *VoxError {
	return &VoxError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VoxError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VoxError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a VoxError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := As(err); ok {
		return vErr.Code == code
	}
	return false
}

// As unwraps err until it finds a *VoxError.
func As(err error) (*VoxError, bool) {
	for err != nil {
		if vErr, ok := err.(*VoxError); ok {
			return vErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
