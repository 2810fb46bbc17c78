// Package storage persists receipt images referenced by raw imports. Objects
// are keyed receipt_images/{userID}/{importID}.jpg so an import record and
// its source image can always be correlated.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrEmptyImage is returned when a caller tries to store a zero-byte image.
var ErrEmptyImage = errors.New("storage: empty image")

// ErrUnsafeID is returned when a user or import id contains characters that
// cannot appear in an object key. Both ids come from request input, so they
// must never carry path separators or dot segments.
var ErrUnsafeID = errors.New("storage: unsafe id for object key")

var safeSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store saves receipt images and resolves read URLs for them.
type Store interface {
	// SaveReceiptImage writes JPEG bytes and returns the storage path that
	// should be recorded on the raw import.
	SaveReceiptImage(ctx context.Context, userID, importID string, data []byte) (string, error)

	// ImageURL resolves a previously returned path to a URL clients can
	// fetch, typically time-limited.
	ImageURL(ctx context.Context, path string) (string, error)
}

// ObjectKey builds the canonical key for a receipt image. It rejects ids
// that could alter the key structure or, for filesystem-backed stores,
// escape the base directory.
func ObjectKey(userID, importID string) (string, error) {
	if !safeSegment.MatchString(userID) || !safeSegment.MatchString(importID) {
		return "", ErrUnsafeID
	}
	return fmt.Sprintf("receipt_images/%s/%s.jpg", userID, importID), nil
}
