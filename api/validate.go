package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("VALIDATION_ERROR", "Invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return mapValidationError(err)
	}
	return nil
}

// formatFieldName turns a JSON field name into words: "userName" -> "User Name".
func formatFieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	caser := cases.Title(language.English, cases.NoLower)
	return caser.String(strings.ReplaceAll(b.String(), "_", " "))
}

// mapValidationError reports the first failed rule.
func mapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return badRequest("VALIDATION_ERROR", "Invalid input")
	}

	e := errs[0]
	field := formatFieldName(e.Field())
	switch e.Tag() {
	case "required":
		return badRequest("VALIDATION_ERROR", field+" is required")
	case "email":
		return badRequest("INVALID_EMAIL", "Invalid email format")
	case "oneof":
		code := "INVALID_" + strings.ToUpper(e.Field())
		return badRequest(code, fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(e.Param()), ", ")))
	case "min", "gte":
		return badRequest("VALIDATION_ERROR", fmt.Sprintf("%s must be at least %s", field, e.Param()))
	case "max", "lte":
		return badRequest("VALIDATION_ERROR", fmt.Sprintf("%s must be at most %s", field, e.Param()))
	default:
		return badRequest("VALIDATION_ERROR", field+" is invalid")
	}
}
