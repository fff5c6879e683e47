package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"logiledger/internal/auth"
	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
)

const maxBodyBytes = 1 << 20

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// DecodeJSON reads a JSON body into dst and validates it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is required", apperrors.ValidationDetail{
				Field:   "body",
				Message: "request body must not be empty",
			})
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}

	if err := v.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return fmt.Errorf("validating request: %w", err)
		}

		details := make([]apperrors.ValidationDetail, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, apperrors.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// Caller returns the identity placed on the request by the auth middleware.
func Caller(r *http.Request) (domain.Caller, error) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthorizedError("authentication required")
	}
	return caller, nil
}
