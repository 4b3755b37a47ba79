package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/porchlight-app/server/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// clampLimit bounds a client-supplied page size to [1, maxPageSize],
// substituting the default when the client sent nothing.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// validateStruct runs the shared validator and converts the first failure
// into the field-level error shape handlers know how to render.
func validateStruct(v any) error {
	err := models.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		return models.Invalid(field, "failed "+fe.Tag()+" validation")
	}
	return models.Invalid("body", err.Error())
}
