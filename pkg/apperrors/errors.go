package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrStore wraps every failure reported by the repository store.
	ErrStore = errors.New("store error")
	// ErrStoreNotConfigured is returned by write operations when no store credentials are set.
	ErrStoreNotConfigured = errors.New("repository store is not configured")

	// ErrBusy means the action was ignored because the same slot is already loading.
	ErrBusy = errors.New("another request is already in progress")
	// ErrUnavailableInView means the action does not apply to the current view or mode.
	ErrUnavailableInView = errors.New("action not available in the current view")
	ErrInvalidInput      = errors.New("invalid input")
)
