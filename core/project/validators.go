package project

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

var (
	projectStatusTag  = "projectstatus"
	projectStatusText = "invalid project status"
)

// InitValidators registers project validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(projectStatusTag, projectStatusValidation)
	core.RegisterCustomTranslation(validate, translator, projectStatusTag, projectStatusText)
}

func projectStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}
