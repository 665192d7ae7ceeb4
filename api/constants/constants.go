package constants

// Common error messages
const (
	ErrInvalidJSON      = "invalid json or missing fields"
	ErrMethodNotAllowed = "Method Not Allowed"
	ErrInternalServer   = "Internal server error. Please contact support"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
)

// Date formats
const (
	DateFormat       = "2006-01-02"
	DateFormatReport = "02.01.2006"
	DateTimeFormat   = "2006-01-02 15:04:05"
)
