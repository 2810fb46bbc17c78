// Package services defines the business logic for price entries, stores,
// imports, and social interactions. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; mapping to
// user-facing messages or HTTP status codes happens at the handler layer.
package services

import "errors"

var (
	// ErrSaveFailed is the generic failure returned by write pipelines. The
	// underlying cause is logged, never surfaced: callers must not be able to
	// mistake a failed write for a succeeded one, but they also get no
	// backend detail.
	ErrSaveFailed = errors.New("save failed")

	// ErrEntryNotFound indicates the targeted entry does not exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrThanksFailed is returned when the thanks transaction aborts; neither
	// counter has been incremented.
	ErrThanksFailed = errors.New("failed to record thanks")

	// ErrStoreNameRequired is returned when a store registration has no name.
	ErrStoreNameRequired = errors.New("store name is required")

	// ErrPlaceIDRequired is returned when a store registration has no place
	// identifier. Registration (unlike entry submission) keys stores by
	// placeId only.
	ErrPlaceIDRequired = errors.New("place id is required")

	// ErrUserRequired is returned when an import is created without a
	// submitting user.
	ErrUserRequired = errors.New("user id is required")

	// ErrInvalidStatus is returned when an import status update carries a
	// value outside draft/confirmed/failed.
	ErrInvalidStatus = errors.New("invalid import status")

	// ErrImportNotFound indicates the referenced raw import does not exist.
	ErrImportNotFound = errors.New("import not found")
)
