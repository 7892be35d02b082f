package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried by APIError.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeMissingFile          = "MISSING_FILE"
	CodeNoSheetURL           = "NO_SHEET_URL"
	CodeRunNotFound          = "RUN_NOT_FOUND"
	CodeRunInProgress        = "RUN_IN_PROGRESS"
	CodeRunNotFinished       = "RUN_NOT_FINISHED"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeUnsupportedFile      = "UNSUPPORTED_FILE"
	CodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeAPISourceUnavailable = "API_SOURCE_UNAVAILABLE"
)

// codeTypes maps an error code onto its problem type URI. Codes missing
// here render as TypeInternal.
var codeTypes = map[string]string{
	CodeInvalidRequest:       TypeValidation,
	CodeValidationFailed:     TypeValidation,
	CodeMissingFile:          TypeValidation,
	CodeNoSheetURL:           TypeValidation,
	CodeRunNotFound:          TypeRunNotFound,
	CodeRunInProgress:        TypeRunInProgress,
	CodeRunNotFinished:       TypeRunInProgress,
	CodeFileTooLarge:         TypePayloadTooLarge,
	CodeUnsupportedFile:      TypeUnsupportedFile,
	CodeRateLimited:          TypeRateLimit,
	CodeServiceUnavailable:   TypeServiceDown,
	CodeAPISourceUnavailable: TypeServiceDown,
}

// APIError is a failure raised at the HTTP boundary: bad input, a missing
// run, a busy browser.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// Problem converts the error into a problem document for instance.
func (e *APIError) Problem(instance string) *ProblemDetails {
	typ, ok := codeTypes[e.ErrorCode]
	if !ok {
		typ = TypeInternal
	}
	pd := NewProblemDetails(e.StatusCode, typ, http.StatusText(e.StatusCode), e.Message, instance).
		WithExtension("error_code", e.ErrorCode)
	if e.Details != nil {
		pd.WithExtension("details", e.Details)
	}
	return pd
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying extra detail for the client.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

var (
	ErrRunNotFound        = New(http.StatusNotFound, CodeRunNotFound, "run not found")
	ErrRunInProgress      = New(http.StatusConflict, CodeRunInProgress, "a live extraction is already running")
	ErrFileTooLarge       = New(http.StatusRequestEntityTooLarge, CodeFileTooLarge, "Uploaded file exceeds the size limit")
	ErrRateLimited        = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded, retry shortly")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field rejection.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// InvalidRequestWithError reports a body that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation rejects a single field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// NewValidationErrors rejects several fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed,
		fmt.Sprintf("Request validation failed on %d field(s)", len(errs)),
		ValidationErrors{Errors: errs})
}
