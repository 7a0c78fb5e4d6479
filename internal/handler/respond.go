package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/skadi/internal/domain"
)

// validate is the shared validator instance. Struct tag rules run on
// every decoded request payload.
var validate = validator.New(validator.WithRequiredStructEnabled())

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BindJSON decodes the request body into dst and runs struct tag
// validation. Returns a domain error suitable for ErrorResponse or
// ValidationErrorResponse.
func BindJSON(r *http.Request, dst any) error {
	const op = "request.decode"

	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.WrapError(err, domain.EINVALID, op, "request body is not valid JSON")
	}

	if err := validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			var fieldErr error
			for _, fe := range invalid {
				fieldErr = domain.AddFieldError(fieldErr, fieldName(fe), fieldMessage(fe))
			}
			return fieldErr
		}
		return domain.WrapError(err, domain.EINVALID, op, "request validation failed")
	}

	return nil
}

func fieldName(fe validator.FieldError) string {
	// Drop the struct name prefix: "checkoutRequest.Items" -> "items".
	parts := strings.Split(fe.Namespace(), ".")
	name := parts[len(parts)-1]
	if name == "" {
		return fe.Field()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or greater", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
