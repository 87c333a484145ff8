// internal/wizard/uploads.go
package wizard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"nominee-applications/internal/models"
)

const DefaultMaxUploadBytes int64 = 5 << 20

// DefaultAllowedTypes are the content types accepted for identity and address documents.
var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}

// Upload is a candidate document for one of the identification slots.
type Upload struct {
	FileName     string
	DeclaredType string
	Data         []byte
}

// UploadPolicy decides whether an upload may be attached to the draft.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: DefaultMaxUploadBytes, AllowedTypes: DefaultAllowedTypes}
}

// Check returns the content type the document will be stored with, or an *UploadError.
// Size is checked before type so an oversized file of the wrong type reports its size.
func (p UploadPolicy) Check(slot models.DocumentSlot, u Upload) (string, error) {
	size := int64(len(u.Data))
	if size > p.MaxBytes {
		return "", &UploadError{Slot: string(slot), Limit: p.MaxBytes, Err: ErrFileTooLarge}
	}
	if size == 0 {
		return "", &UploadError{Slot: string(slot), Err: ErrEmptyFile}
	}

	contentType := DetectContentType(u.Data, u.DeclaredType)
	if !p.allowed(contentType) {
		return "", &UploadError{Slot: string(slot), ContentType: contentType, Err: ErrUnsupportedFileType}
	}
	return contentType, nil
}

func (p UploadPolicy) allowed(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// DetectContentType sniffs data and falls back to the declared type when the bytes are not
// recognised.
func DetectContentType(data []byte, declared string) string {
	sniffed := mimetype.Detect(data)
	if sniffed.Is("application/octet-stream") {
		return normalizeContentType(declared)
	}
	return normalizeContentType(sniffed.String())
}

func normalizeContentType(ct string) string {
	base, _, _ := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// documentKey builds the object key for an accepted upload.
func documentKey(sessionID string, slot models.DocumentSlot, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	return fmt.Sprintf("applications/%s/%s/%s-%s", sessionID, slot, uuid.NewString(), base)
}
