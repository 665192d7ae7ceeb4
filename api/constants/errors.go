package constants

import "fmt"

// ============================================================================
// UPLOAD ERRORS
// ============================================================================

const (
	ErrFileUploadFailed  = "File upload failed. Please check the file format and try again"
	ErrInvalidFileFormat = "Invalid file format. Please upload a valid .xlsx, .xls or .csv file"
	ErrFileParsingFailed = "Failed to parse file contents. Please check the report structure"
	ErrEmptyFile         = "Uploaded file is empty"
	ErrMissingFile       = "Both ordered_file and moved_file are required"
)

// ============================================================================
// SESSION & MANUAL MATCH ERRORS
// ============================================================================

const (
	ErrSessionNotFound   = "Session not found. Please upload the reports again"
	ErrRequestNotFound   = "Shipment request not found in the current leftovers"
	ErrEmptySelection    = "Select at least one moved row and one note fragment"
	ErrSelectionConsumed = "Selection refers to an index that was already consumed. Refresh the session and retry"
	ErrQuantityExceeded  = "Requested quantity exceeds the remaining moved quantity. Refresh the session and retry"
	ErrStoreUnavailable  = "Persistence is not configured on this instance"
)

// ============================================================================
// HELPER FUNCTIONS TO FORMAT ERRORS WITH CONTEXT
// ============================================================================

// FormatError appends detail context to a base error message
func FormatError(baseError string, context ...interface{}) string {
	if len(context) == 0 {
		return baseError
	}
	return baseError + ": " + fmt.Sprint(context...)
}
