package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"` // Set for VALIDATION_FAILED

	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeMissingDateOfBirth   = "MISSING_DATE_OF_BIRTH"
	CodeHierarchyViolation   = "HIERARCHY_VIOLATION"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeOperatorNotFound     = "OPERATOR_NOT_FOUND"
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeGuestNotFound        = "GUEST_NOT_FOUND"
	CodeGroupNotFound        = "GROUP_NOT_FOUND"
	CodeDraftNotFound        = "DRAFT_NOT_FOUND"
	CodeNotCheckedIn         = "NOT_CHECKED_IN"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeUsernameExists       = "USERNAME_EXISTS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeStreamingUnsupported = "STREAMING_UNSUPPORTED"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{Code: CodeValidationFailed, Message: ve.Message, Field: ve.Field}}
	}

	switch {
	case errors.Is(err, model.ErrMissingDateOfBirth):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeMissingDateOfBirth, Message: err.Error()}}

	// Not found
	case errors.Is(err, model.ErrOperatorNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeOperatorNotFound, Message: "Operator not found"}}
	case errors.Is(err, model.ErrEventNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeEventNotFound, Message: "Event not found"}}
	case errors.Is(err, model.ErrGroupNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeGroupNotFound, Message: "Cannot locate group"}}
	case errors.Is(err, model.ErrGuestNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeGuestNotFound, Message: "Guest not found"}}
	case errors.Is(err, model.ErrDraftNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeDraftNotFound, Message: "Draft not found"}}

	// Hierarchy
	case errors.Is(err, model.ErrResponsibleNotFound),
		errors.Is(err, model.ErrCrossEventReference),
		errors.Is(err, model.ErrSelfReference),
		errors.Is(err, model.ErrHierarchyTooDeep),
		errors.Is(err, model.ErrChildResponsible):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeHierarchyViolation, Message: err.Error()}}

	// Attendance
	case errors.Is(err, model.ErrNotCheckedIn):
		return &httpError{http.StatusConflict, APIError{Code: CodeNotCheckedIn, Message: "Guest has not checked in"}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{Code: CodeInvalidTransition, Message: "Invalid attendance transition"}}
	case errors.Is(err, model.ErrConcurrentUpdate):
		return &httpError{http.StatusConflict, APIError{Code: CodeConcurrentUpdate, Message: "Guest list changed concurrently, try again"}}

	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{Code: CodeUsernameExists, Message: "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}

// NewInternalErrorForRequest creates an internal server error that quotes the
// request id, so an operator can match it to the server log
func NewInternalErrorForRequest(requestID string) error {
	return &httpError{http.StatusInternalServerError, APIError{
		Code:      CodeInternalError,
		Message:   "Internal server error",
		RequestID: requestID,
	}}
}

// NewStreamingUnsupportedError is returned when the connection cannot be flushed
func NewStreamingUnsupportedError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeStreamingUnsupported, Message: "Streaming unsupported"}}
}
