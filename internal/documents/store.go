// Package documents stores the identity and address documents uploaded during an application.
package documents

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Store keeps uploaded document bytes by key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
