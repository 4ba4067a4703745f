package models

// ErrorMessageResponse returns the error message response struct. Error
// carries the underlying detail and is omitted in production builds.
type ErrorMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
