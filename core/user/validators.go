package user

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/role"
)

var (
	personNameTag   = "personname"
	personNameText  = "only letters and spaces are allowed"
	personNameRegex = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)

	phoneTag   = "phone"
	phoneText  = "invalid phone number"
	phoneRegex = regexp.MustCompile(`^[+]?[0-9]{6,15}$`)

	roleTag  = "role"
	roleText = "invalid role"
)

// RegisterValidators adds the user rules to v.
func RegisterValidators(v *core.Validator) {
	_ = v.Validate.RegisterValidation(personNameTag, regexValidation(personNameRegex))
	v.RegisterTranslation(personNameTag, personNameText)

	_ = v.Validate.RegisterValidation(phoneTag, regexValidation(phoneRegex))
	v.RegisterTranslation(phoneTag, phoneText)

	_ = v.Validate.RegisterValidation(roleTag, roleValidation)
	v.RegisterTranslation(roleTag, roleText)
}

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// roleValidation only accepts roles the backend issues.
func roleValidation(fl validator.FieldLevel) bool {
	return role.Role(fl.Field().String()).Valid()
}
