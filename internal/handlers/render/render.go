package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

// FieldError is one reported validation issue
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// errorResponse is the error envelope: a string or a list of FieldError
type errorResponse struct {
	Error any `json:"error"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONStatus(w, data, http.StatusOK)
}

// JSONStatus sends data as json and enforces status code
func JSONStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Error renders the '{"error": message}' envelope
func Error(w http.ResponseWriter, message string, code int) {
	JSONStatus(w, errorResponse{Error: message}, code)
}

// InternalError renders the generic 500 body
// Details stay on the server side, the client never sees them
func InternalError(w http.ResponseWriter) {
	Error(w, "Internal server error", http.StatusInternalServerError)
}

// DecodeError renders json decoding failures
func DecodeError(w http.ResponseWriter, err error) {
	var message string

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Error(w, message, http.StatusBadRequest)
}

// ValidationErrors renders the issues as a '{"error": [{path, message, code}]}' list
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	FieldErrors(w, toFieldErrors(errs))
}

// FieldErrors renders an already built issue list
func FieldErrors(w http.ResponseWriter, fields []FieldError) {
	JSONStatus(w, errorResponse{Error: fields}, http.StatusBadRequest)
}

func toFieldErrors(errs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(errs))

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		default:
			message = "Invalid value"
		}

		fields = append(fields, FieldError{
			Path:    fieldError.Field(),
			Message: message,
			Code:    fieldError.Tag(),
		})
	}

	return fields
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}
