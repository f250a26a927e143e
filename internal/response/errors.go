package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrAuth               ErrCode = "AUTH_ERROR"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAccessPending     ErrCode = "ACCESS_CHECK_PENDING"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Editor ────────────────────────────────────────────────────────
	ErrDraftNotFound        ErrCode = "DRAFT_NOT_FOUND"
	ErrEditorValidation     ErrCode = "EDITOR_VALIDATION"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrSubmitFailed         ErrCode = "SUBMIT_FAILED"

	// ─── Viewer ────────────────────────────────────────────────────────
	ErrTestUnavailable ErrCode = "TEST_UNAVAILABLE"
	ErrTestNotOpened   ErrCode = "TEST_NOT_OPENED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrAuth:
		return "An unexpected error occurred. Please try again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAccessPending:
		return "Checking access. Please retry shortly."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Editor ────────────────────────────────────────────────────────
	case ErrDraftNotFound:
		return "Draft not found."
	case ErrEditorValidation:
		return "The draft is not valid."
	case ErrConfirmationRequired:
		return "This deletion must be confirmed."
	case ErrSubmitFailed:
		return "Failed to create test. Please try again."

	// ─── Viewer ────────────────────────────────────────────────────────
	case ErrTestUnavailable:
		return "Failed to load test. Please try again."
	case ErrTestNotOpened:
		return "Open the test before navigating it."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
