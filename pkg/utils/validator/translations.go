package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// registerCustomTranslations registers translations for custom validation rules.
func (v *Validator) registerCustomTranslations() {
	enTranslations := map[string]string{
		TagPassword:   "{0} must be at least 8 characters and contain at least one letter and one number",
		TagTrimmed:    "{0} must not have leading or trailing spaces",
		TagSafeString: "{0} contains potentially unsafe content",
	}
	zhTranslations := map[string]string{
		TagPassword:   "{0}必须至少8个字符，且包含至少一个字母和一个数字",
		TagTrimmed:    "{0}不能有前导或尾随空格",
		TagSafeString: "{0}包含潜在的不安全内容",
	}

	if trans := v.GetTranslator(LangEN); trans != nil {
		for tag, message := range enTranslations {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
	if trans := v.GetTranslator(LangZH); trans != nil {
		for tag, message := range zhTranslations {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
