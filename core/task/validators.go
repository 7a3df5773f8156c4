package task

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

var (
	taskStatusTag  = "taskstatus"
	taskStatusText = "invalid task status"
)

// InitValidators registers task validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(taskStatusTag, taskStatusValidation)
	core.RegisterCustomTranslation(validate, translator, taskStatusTag, taskStatusText)
}

func taskStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}
