package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/scholium-app/scholium/core"
)

var (
	appRoleTag  = "appRole"
	appRoleText = "invalid role"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(appRoleTag, appRoleValidation)
	core.RegisterCustomTranslation(validate, translator, appRoleTag, appRoleText)
}

// appRoleValidation checks that the provided role is a known one.
func appRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
