package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the service's custom tags:
// "language" (supported ISO 639-1 code), "job_status" and "gender"
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return entities.IsSupportedLanguage(entities.NormalizeLanguageCode(fl.Field().String()))
	})
	_ = v.RegisterValidation("job_status", func(fl validator.FieldLevel) bool {
		return entities.JobStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return entities.SpeakerGender(fl.Field().String()).IsValid()
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
