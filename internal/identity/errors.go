package identity

import (
	"errors"
	"strings"
)

// Code is an identity-provider error code.
type Code string

const (
	CodeUserNotFound         Code = "auth/user-not-found"
	CodeWrongPassword        Code = "auth/wrong-password"
	CodeInvalidCredential    Code = "auth/invalid-credential"
	CodeEmailAlreadyInUse    Code = "auth/email-already-in-use"
	CodeWeakPassword         Code = "auth/weak-password"
	CodeInvalidEmail         Code = "auth/invalid-email"
	CodeTooManyRequests      Code = "auth/too-many-requests"
	CodeNetworkRequestFailed Code = "auth/network-request-failed"
	CodeUserDisabled         Code = "auth/user-disabled"
	CodeOperationNotAllowed  Code = "auth/operation-not-allowed"
)

// FallbackMessage is shown when an error carries nothing better.
const FallbackMessage = "An unexpected error occurred. Please try again."

var messages = map[Code]string{
	CodeUserNotFound:         "No account found with this email address.",
	CodeWrongPassword:        "Incorrect password. Please try again.",
	CodeInvalidCredential:    "Invalid email or password. Please check your credentials and try again.",
	CodeEmailAlreadyInUse:    "An account with this email already exists.",
	CodeWeakPassword:         "Password should be at least 6 characters long.",
	CodeInvalidEmail:         "Please enter a valid email address.",
	CodeTooManyRequests:      "Too many failed attempts. Please try again later.",
	CodeNetworkRequestFailed: "Network error. Please check your connection.",
	CodeUserDisabled:         "This account has been disabled.",
	CodeOperationNotAllowed:  "This operation is not allowed.",
}

// Error is a failure reported by the identity provider.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func newError(code Code) *Error {
	return &Error{Code: code}
}

// Message maps an error to the text shown to the user. Known codes use the
// fixed table, unknown provider codes fall back to the provider's own message,
// and anything else gets FallbackMessage.
func Message(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return FallbackMessage
	}
	if msg, ok := messages[ae.Code]; ok {
		return msg
	}
	if ae.Message != "" {
		return ae.Message
	}
	return FallbackMessage
}

// MessageFor returns the fixed message for a known code.
func MessageFor(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return FallbackMessage
}

// IsAuthError reports whether err carries an identity-provider code.
func IsAuthError(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && strings.HasPrefix(string(ae.Code), "auth/")
}

// CodeOf returns the provider code carried by err, or "".
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
