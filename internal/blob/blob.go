// Package blob is the object-storage boundary for poll images: bytes go in
// under a generated key, a retrieval URL comes back. The filesystem store
// backs /media/ in production; the memory store backs tests.
package blob

import (
	"errors"
	"fmt"
	"strings"
)

// MaxImageBytes caps uploads at 5 MB.
const MaxImageBytes = 5 * 1024 * 1024

var (
	ErrNotImage = errors.New("content type is not an image")
	ErrTooLarge = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
)

type Store interface {
	// Put stores data under key and returns the public retrieval URL.
	Put(key, contentType string, data []byte) (string, error)
}

// ValidateImage checks the declared content type and size before any
// bytes are handed to a store.
func ValidateImage(contentType string, size int) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}

// Ext maps an image content type to a file extension for generated keys.
func Ext(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".img"
	}
}
