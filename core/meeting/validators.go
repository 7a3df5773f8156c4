package meeting

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/minumate/backend/core"
)

var (
	meetingRoleTag  = "meetingrole"
	meetingRoleText = "invalid participant role"
)

// InitValidators registers meeting validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(meetingRoleTag, meetingRoleValidation)
	core.RegisterCustomTranslation(validate, translator, meetingRoleTag, meetingRoleText)
}

func meetingRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
