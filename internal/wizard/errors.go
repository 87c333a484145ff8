package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStepIncomplete       = errors.New("step requirements are not met")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted     = errors.New("application already submitted")
	ErrFileTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedFileType  = errors.New("file type is not accepted")
	ErrEmptyFile            = errors.New("file is empty")
	ErrUnknownDocumentSlot  = errors.New("unknown document slot")
	ErrInvalidPatch         = errors.New("invalid draft update")
	ErrSubmissionInvalid    = errors.New("submission payload failed schema validation")
	ErrDeliveryFailed       = errors.New("delivery failed")
	ErrDocumentStore        = errors.New("document store failed")
)

// IncompleteError carries the report of the step that blocked an action.
type IncompleteError struct {
	Report StepReport
}

func (e *IncompleteError) Error() string {
	ids := make([]string, len(e.Report.Missing))
	for i, id := range e.Report.Missing {
		ids[i] = string(id)
	}
	return fmt.Sprintf("%s: step %d missing [%s]", ErrStepIncomplete, e.Report.Step, strings.Join(ids, ", "))
}

func (e *IncompleteError) Unwrap() error { return ErrStepIncomplete }

// UploadError describes a rejected upload.
type UploadError struct {
	Slot        string
	ContentType string
	Limit       int64
	Err         error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s rejected: %v", e.Slot, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
