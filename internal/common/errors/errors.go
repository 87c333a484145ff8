// Package errors provides the standardized error envelope returned by the application API.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeStepIncomplete        ErrorCode = "STEP_INCOMPLETE"
	ErrCodeInvalidDraftPatch     ErrorCode = "INVALID_DRAFT_PATCH"
	ErrCodeUploadTooLarge        ErrorCode = "UPLOAD_TOO_LARGE"
	ErrCodeUploadUnsupported     ErrorCode = "UPLOAD_UNSUPPORTED_TYPE"
	ErrCodeUploadEmpty           ErrorCode = "UPLOAD_EMPTY"
	ErrCodeUnknownDocumentSlot   ErrorCode = "UNKNOWN_DOCUMENT_SLOT"
	ErrCodeSubmissionInProgress  ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeAlreadySubmitted      ErrorCode = "ALREADY_SUBMITTED"
	ErrCodeSubmissionSchema      ErrorCode = "SUBMISSION_SCHEMA_INVALID"
	ErrCodeDeliveryFailed        ErrorCode = "DELIVERY_FAILED"
	ErrCodeDraftStoreUnavailable ErrorCode = "DRAFT_STORE_UNAVAILABLE"
	ErrCodeDocumentStoreFailed   ErrorCode = "DOCUMENT_STORE_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code onto the status the API responds with.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidationFailed, ErrCodeInvalidDraftPatch, ErrCodeUploadEmpty, ErrCodeSubmissionSchema:
		return http.StatusBadRequest
	case ErrCodeStepIncomplete:
		return http.StatusUnprocessableEntity
	case ErrCodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeUploadUnsupported:
		return http.StatusUnsupportedMediaType
	case ErrCodeUnknownDocumentSlot:
		return http.StatusNotFound
	case ErrCodeSubmissionInProgress, ErrCodeAlreadySubmitted:
		return http.StatusConflict
	case ErrCodeDeliveryFailed:
		return http.StatusBadGateway
	case ErrCodeDraftStoreUnavailable, ErrCodeDocumentStoreFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false)
}

// NewStepIncompleteError reports a submit attempted before the declarations step is complete.
func NewStepIncompleteError(step int, missing []string) *StandardError {
	e := newError(ErrCodeStepIncomplete, "Step requirements are not met", fmt.Sprintf("step: %d", step), false)
	e.Metadata = map[string]interface{}{"step": step, "missing": missing}
	return e
}

func NewInvalidDraftPatchError(details string) *StandardError {
	return newError(ErrCodeInvalidDraftPatch, "Draft update rejected", details, false)
}

// NewUploadTooLargeError reports a document above the size cap.
func NewUploadTooLargeError(slot string, limit int64) *StandardError {
	e := newError(ErrCodeUploadTooLarge, "File is too large", fmt.Sprintf("maximum size is %d bytes", limit), false)
	e.Metadata = map[string]interface{}{"slot": slot, "maxBytes": limit}
	return e
}

// NewUploadUnsupportedError reports a document whose type is not accepted.
func NewUploadUnsupportedError(slot, contentType string) *StandardError {
	e := newError(ErrCodeUploadUnsupported, "File type is not accepted", fmt.Sprintf("contentType: %s", contentType), false)
	e.Metadata = map[string]interface{}{"slot": slot, "accepted": "JPEG, PNG or PDF"}
	return e
}

func NewUploadEmptyError(slot string) *StandardError {
	return newError(ErrCodeUploadEmpty, "File is empty", fmt.Sprintf("slot: %s", slot), false)
}

func NewUnknownDocumentSlotError(slot string) *StandardError {
	return newError(ErrCodeUnknownDocumentSlot, "Unknown document slot", fmt.Sprintf("slot: %s", slot), false)
}

func NewSubmissionInProgressError() *StandardError {
	return newError(ErrCodeSubmissionInProgress, "A submission is already in progress", "", false)
}

func NewAlreadySubmittedError() *StandardError {
	return newError(ErrCodeAlreadySubmitted, "Application has already been submitted", "", false)
}

// NewSubmissionSchemaError reports an assembled payload that failed schema validation.
func NewSubmissionSchemaError(details string) *StandardError {
	return newError(ErrCodeSubmissionSchema, "Submission payload is invalid", details, false)
}

// NewDeliveryFailedError creates a retryable delivery error. The draft is kept for the retry.
func NewDeliveryFailedError(err error) *StandardError {
	return newError(ErrCodeDeliveryFailed, "We could not send your application, please try again", err.Error(), true)
}

func NewDraftStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeDraftStoreUnavailable, "Draft storage is unavailable", err.Error(), true)
}

func NewDocumentStoreFailedError(err error) *StandardError {
	return newError(ErrCodeDocumentStoreFailed, "Document could not be stored", err.Error(), true)
}

// NewInternalError wraps anything unclassified.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
