// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "nominee-applications/internal/common/errors"
	"nominee-applications/internal/models"
	"nominee-applications/internal/wizard"
)

type navigationResponse struct {
	Moved    bool              `json:"moved"`
	Report   wizard.StepReport `json:"report"`
	Snapshot wizard.Snapshot   `json:"snapshot"`
}

func (s *Server) wizardFor(w http.ResponseWriter, r *http.Request) *wizard.Wizard {
	return s.sessions.Get(r.Context(), s.sessionID(w, r))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.wizardFor(w, r).Snapshot())
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)

	var patch models.DraftPatch
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		s.writeError(w, r, apperrors.NewValidationFailedError(fmt.Sprintf("invalid draft update: %v", err)))
		return
	}

	if err := wz.UpdateDraft(r.Context(), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wz.Snapshot())
}

// handleUpload reads the multipart field "file". The body is capped just above the upload
// limit so oversized files are still reported as too large rather than truncated.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)
	slot := models.DocumentSlot(r.PathValue("slot"))
	if !slot.Valid() {
		s.writeError(w, r, apperrors.NewUnknownDocumentSlotError(string(slot)))
		return
	}

	limit := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, apperrors.NewUploadTooLargeError(string(slot), limit))
			return
		}
		s.writeError(w, r, apperrors.NewValidationFailedError(fmt.Sprintf("invalid multipart body: %v", err)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, apperrors.NewValidationFailedError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.writeError(w, r, apperrors.NewValidationFailedError(fmt.Sprintf("could not read upload: %v", err)))
		return
	}

	_, err = wz.AttachDocument(r.Context(), slot, wizard.Upload{
		FileName:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wz.Snapshot())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)
	report, moved, err := wz.GoNext(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, navigationResponse{Moved: moved, Report: report, Snapshot: wz.Snapshot()})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)
	if err := wz.GoPrevious(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wz.Snapshot())
}

// handleSubmit delivers the application. A delivered session is released so the visitor's
// next request starts from whatever the store still holds.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	wz := s.sessions.Get(r.Context(), id)

	result, err := wz.Submit(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sessions.Release(id)
	s.writeJSON(w, http.StatusOK, result)
}
