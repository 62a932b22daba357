package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single failed binding rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var bindingMessages = map[string]string{
	"required": "field is required",
	"email":    "invalid email format",
	"min":      "value is too short",
	"max":      "value is too long",
}

// NewBindingErrorResponse turns a request binding error into a response with
// per-field messages when the failure came from struct validation. Malformed
// JSON and other decode errors collapse to a generic message.
func NewBindingErrorResponse(err error) *Response {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewErrorResponse("invalid request body")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg := bindingMessages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		fields = append(fields, FieldError{Field: e.Field(), Message: msg})
	}

	return &Response{
		Status:  "error",
		Message: "validation failed",
		Data:    fields,
	}
}
