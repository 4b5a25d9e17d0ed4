package connector

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var profileValidate *validator.Validate

func init() {
	profileValidate = validator.New()
	_ = profileValidate.RegisterValidation("nonblank", validateNonBlank)
}

// validateNonBlank rejects strings made only of whitespace.
func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
