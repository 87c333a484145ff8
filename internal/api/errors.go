package api

import (
	"errors"

	apperrors "nominee-applications/internal/common/errors"
	"nominee-applications/internal/wizard"
)

// ToStandardError maps wizard failures onto the API error envelope.
func ToStandardError(err error) *apperrors.StandardError {
	var std *apperrors.StandardError
	if errors.As(err, &std) {
		return std
	}

	var incomplete *wizard.IncompleteError
	if errors.As(err, &incomplete) {
		missing := make([]string, len(incomplete.Report.Missing))
		for i, id := range incomplete.Report.Missing {
			missing[i] = string(id)
		}
		return apperrors.NewStepIncompleteError(int(incomplete.Report.Step), missing)
	}

	var upload *wizard.UploadError
	if errors.As(err, &upload) {
		switch {
		case errors.Is(err, wizard.ErrFileTooLarge):
			return apperrors.NewUploadTooLargeError(upload.Slot, upload.Limit)
		case errors.Is(err, wizard.ErrUnsupportedFileType):
			return apperrors.NewUploadUnsupportedError(upload.Slot, upload.ContentType)
		case errors.Is(err, wizard.ErrEmptyFile):
			return apperrors.NewUploadEmptyError(upload.Slot)
		case errors.Is(err, wizard.ErrUnknownDocumentSlot):
			return apperrors.NewUnknownDocumentSlotError(upload.Slot)
		}
	}

	switch {
	case errors.Is(err, wizard.ErrInvalidPatch):
		return apperrors.NewInvalidDraftPatchError(err.Error())
	case errors.Is(err, wizard.ErrSubmissionInProgress):
		return apperrors.NewSubmissionInProgressError()
	case errors.Is(err, wizard.ErrAlreadySubmitted):
		return apperrors.NewAlreadySubmittedError()
	case errors.Is(err, wizard.ErrSubmissionInvalid):
		return apperrors.NewSubmissionSchemaError(err.Error())
	case errors.Is(err, wizard.ErrDeliveryFailed):
		return apperrors.NewDeliveryFailedError(err)
	case errors.Is(err, wizard.ErrDocumentStore):
		return apperrors.NewDocumentStoreFailedError(err)
	}
	return apperrors.NewInternalError(err)
}
