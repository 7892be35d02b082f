package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies domain failures.
type ErrorType string

const (
	// ErrTypeSourceUnreachable covers navigation and load failures of the sheet.
	ErrTypeSourceUnreachable ErrorType = "SOURCE_UNREACHABLE"
	// ErrTypeSignIn means the browser profile has no Google session.
	ErrTypeSignIn         ErrorType = "SIGN_IN_REQUIRED"
	ErrTypeColumnNotFound ErrorType = "COLUMN_NOT_FOUND"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeConfig         ErrorType = "CONFIG"
	ErrTypeInternal       ErrorType = "INTERNAL"
)

type errorKind struct {
	status  int
	problem string
}

var kinds = map[ErrorType]errorKind{
	ErrTypeSourceUnreachable: {http.StatusBadGateway, TypeSourceUnreachable},
	ErrTypeSignIn:            {http.StatusUnauthorized, TypeSignInRequired},
	ErrTypeColumnNotFound:    {http.StatusUnprocessableEntity, TypeColumnNotFound},
	ErrTypeParsing:           {http.StatusUnprocessableEntity, TypeParsing},
	ErrTypeValidation:        {http.StatusUnprocessableEntity, TypeValidation},
	ErrTypeNotFound:          {http.StatusNotFound, TypeNotFound},
	ErrTypeConfig:            {http.StatusServiceUnavailable, TypeServiceDown},
}

func (t ErrorType) kind() errorKind {
	if k, ok := kinds[t]; ok {
		return k
	}
	return errorKind{http.StatusInternalServerError, TypeInternal}
}

// AppError is a domain failure raised below the HTTP layer. Context entries
// are surfaced to clients as problem extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext sets a context entry and returns e for chaining.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus is the response status for the error type.
func (e *AppError) HTTPStatus() int {
	return e.Type.kind().status
}

// Problem converts the error into a problem document for instance.
func (e *AppError) Problem(instance string) *ProblemDetails {
	k := e.Type.kind()
	pd := NewProblemDetails(k.status, k.problem, http.StatusText(k.status), e.Message, instance).
		WithExtension("error_code", string(e.Type))
	for key, v := range e.Context {
		pd.WithExtension(key, v)
	}
	return pd
}

// NewAppError creates an AppError.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewSourceUnreachableError reports a sheet that could not be loaded.
func NewSourceUnreachableError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnreachable, message, cause)
}

// NewSignInRequiredError reports a browser profile without a Google session.
func NewSignInRequiredError(message string) *AppError {
	return NewAppError(ErrTypeSignIn, message, nil)
}

// NewColumnNotFoundError reports a missing column along with the headers
// and numeric headers the client can choose from instead.
func NewColumnNotFoundError(message string, headers, numeric []string) *AppError {
	return NewAppError(ErrTypeColumnNotFound, message, nil).
		WithContext("columns", headers).
		WithContext("numeric_columns", numeric)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of errType.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}
