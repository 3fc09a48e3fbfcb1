package attendance

import "errors"

// Attendance domain errors
var (
	ErrUnknownStatus = errors.New("unknown attendance status")
)
