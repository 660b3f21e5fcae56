package feed

import "errors"

var (
	// ErrUnknownAction is returned when a delta carries an action
	// outside the created/status-updated set.
	ErrUnknownAction = errors.New("unknown delta action")

	// ErrMissingBookingID is returned when a delta booking has no ID
	// to merge on.
	ErrMissingBookingID = errors.New("delta booking missing id")
)
