package tenant

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/billing"
)

var (
	tierTag  = "tier"
	tierText = "invalid subscription tier"
)

// InitValidators registers this package's custom validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(tierTag, tierValidation)
	core.RegisterCustomTranslation(validate, translator, tierTag, tierText)
}

// tierValidation checks that a provided tier is in the closed enumeration.
func tierValidation(fl validator.FieldLevel) bool {
	return billing.Tier(fl.Field().String()).Valid()
}
