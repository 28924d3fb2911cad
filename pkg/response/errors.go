package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Kind classifies a fault independently of the component that raised it.
type Kind int

const (
	KindUnhandled Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindValidationFailed
	KindInvalidState
	KindStorageFailure
	KindRateLimited
)

var kindNames = map[Kind]string{
	KindUnhandled:        "unhandled",
	KindNotFound:         "not_found",
	KindForbidden:        "forbidden",
	KindUnauthenticated:  "unauthenticated",
	KindValidationFailed: "validation_failed",
	KindInvalidState:     "invalid_state",
	KindStorageFailure:   "storage_failure",
	KindRateLimited:      "rate_limited",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unhandled"
}

// HTTPStatus is the externally observable status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	case KindInvalidState:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) defaultMessage() string {
	switch k {
	case KindNotFound:
		return "Resource not found"
	case KindForbidden:
		return "You are not allowed to access this resource."
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindValidationFailed:
		return "Validation failed"
	case KindInvalidState:
		return "Invalid state"
	case KindStorageFailure:
		return "A database error occurred"
	case KindRateLimited:
		return "Too many requests."
	default:
		return "Server error"
	}
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	Kind       Kind
	HTTPStatus int                 // HTTP status code (e.g. 400, 404, 500)
	Code       int                 // Application-level error code
	Message    string              // Human-readable error message
	Errors     map[string][]string // Field violations, ValidationFailed only
	Err        error               // Underlying cause, never rendered
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind Kind, msg string, cause error) *AppError {
	if msg == "" {
		msg = kind.defaultMessage()
	}
	status := kind.HTTPStatus()
	return &AppError{
		Kind:       kind,
		HTTPStatus: status,
		Code:       status,
		Message:    msg,
		Err:        cause,
	}
}

// Pre-defined error constructors. An empty msg selects the kind's default.

func NewNotFound(msg string) *AppError {
	return newAppError(KindNotFound, msg, nil)
}

func NewForbidden(msg string) *AppError {
	return newAppError(KindForbidden, msg, nil)
}

func NewUnauthenticated(msg string) *AppError {
	return newAppError(KindUnauthenticated, msg, nil)
}

func NewInvalidState(msg string) *AppError {
	return newAppError(KindInvalidState, msg, nil)
}

func NewRateLimited(msg string) *AppError {
	return newAppError(KindRateLimited, msg, nil)
}

func NewStorageFailure(msg string, cause error) *AppError {
	return newAppError(KindStorageFailure, msg, cause)
}

func NewServerError(msg string, cause error) *AppError {
	return newAppError(KindUnhandled, msg, cause)
}

// NewValidation builds a ValidationFailed error from a field -> violations map.
func NewValidation(fields map[string][]string) *AppError {
	e := newAppError(KindValidationFailed, "", nil)
	e.Errors = fields
	return e
}

// NewFieldError is a ValidationFailed error for a single field.
func NewFieldError(field, msg string) *AppError {
	return NewValidation(map[string][]string{field: {msg}})
}

// Classify maps any error onto the taxonomy.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newAppError(KindNotFound, "", err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidation(validationMessages(verrs))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewFieldError("body", "The request body must be valid JSON.")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return NewFieldError(field, fmt.Sprintf("The %s field has an invalid type.", humanize(field)))
	}

	return newAppError(KindUnhandled, "", err)
}

func validationMessages(verrs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], describe(fe))
	}
	return fields
}

func describe(fe validator.FieldError) string {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return fmt.Sprintf("The %s field is required.", field)
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "datetime", "date":
		return fmt.Sprintf("The %s field must be a valid date.", field)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func init() {
	// Report json tag names (due_date, not DueDate) in validation errors.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// BindingError converts a request binding failure into ValidationFailed.
// Classified kinds other than Unhandled pass through unchanged.
func BindingError(err error) *AppError {
	if err == nil {
		return nil
	}
	appErr := Classify(err)
	if appErr.Kind != KindUnhandled {
		return appErr
	}
	if errors.Is(err, io.EOF) {
		return NewFieldError("body", "The request body is required.")
	}
	return NewFieldError("body", "The request body could not be parsed.")
}
