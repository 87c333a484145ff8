// Package delivery holds what the operator delivery backends share.
package delivery

import (
	"context"
	"fmt"
	"path"
	"strings"

	"nominee-applications/internal/models"
)

// DocumentSource reads uploaded document bytes back for attaching.
type DocumentSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// LoadAttachments fetches every referenced document. A missing document fails the whole
// delivery so the operator never receives an application without its evidence.
func LoadAttachments(ctx context.Context, src DocumentSource, refs []models.DocumentRef) ([]Attachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if src == nil {
		return nil, fmt.Errorf("no document source for %d attachment(s)", len(refs))
	}

	out := make([]Attachment, 0, len(refs))
	for _, ref := range refs {
		data, err := src.Get(ctx, ref.Key)
		if err != nil {
			return nil, fmt.Errorf("load attachment %s: %w", ref.FileName, err)
		}
		out = append(out, Attachment{
			FileName:    AttachmentName(ref),
			ContentType: ref.ContentType,
			Data:        data,
		})
	}
	return out, nil
}

// AttachmentName returns a safe file name for ref, falling back to the last key segment.
func AttachmentName(ref models.DocumentRef) string {
	name := strings.TrimSpace(ref.FileName)
	if name == "" {
		name = path.Base(ref.Key)
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == '\\' || r == '/' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		return "document"
	}
	return name
}
