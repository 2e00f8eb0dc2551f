// Package storage keeps uploaded recipe images outside the database and hands
// back an opaque reference string for each one.
package storage

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyObject            = errors.New("storage: empty object")
	ErrUnsupportedContentType = errors.New("storage: unsupported content type")
	ErrUnknownReference       = errors.New("storage: reference not owned by this store")
)

// AllowImage lists the content types accepted for recipe images.
var AllowImage = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// BlobStore stores bytes and returns an opaque reference to them.
type BlobStore interface {
	// Put stores data under a fresh name derived from filename and returns its reference.
	Put(ctx context.Context, filename string, data []byte) (string, error)

	// Delete removes the object behind a reference returned by Put.
	Delete(ctx context.Context, ref string) error
}

// detectImageType sniffs data and returns its content type if it is an allowed image.
func detectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}

	contentType := http.DetectContentType(data)
	for _, allowed := range AllowImage {
		if contentType == allowed {
			return contentType, nil
		}
	}
	return "", ErrUnsupportedContentType
}

// objectName returns a collision-free name that keeps the hint's extension.
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.NewString() + ext
}
