package task

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nkashama/duetrack/core"
)

var (
	dueTimeTag  = "duetime"
	dueTimeText = "must be a 12-hour clock time, eg. \"02:30 PM\""
)

// InitValidators registers task validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dueTimeTag, dueTimeValidation)
	core.RegisterCustomTranslation(validate, translator, dueTimeTag, dueTimeText)
}

func dueTimeValidation(fl validator.FieldLevel) bool {
	_, _, err := ParseDueTime(fl.Field().String())
	return err == nil
}
