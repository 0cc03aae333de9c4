package validators

import (
	"regexp"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

var zipPattern = regexp.MustCompile(`^[0-9]{4}$`)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the "zip" and "category" tags registered
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsCategory(fl.Field().String())
	})
	return &CustomValidator{validate: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
