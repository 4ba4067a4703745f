package databases

import "errors"

// ErrNotFound is returned when no report matches the requested id.
var ErrNotFound = errors.New("report not found")

// ErrValidation is returned when required input is missing or malformed.
// Callers map it to a 400 at the HTTP boundary.
var ErrValidation = errors.New("validation failed")
