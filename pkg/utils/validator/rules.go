package validator

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagPassword   = "password"   // Password (min 8 chars, at least 1 letter and 1 number)
	TagTrimmed    = "trimmed"    // No leading/trailing spaces
	TagSafeString = "safestring" // No SQL injection or XSS patterns
)

// dangerousPatterns for safe string validation
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:",
	"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "DROP ",
	"UNION ", "OR 1=1", "' OR '", "-- ", "/*", "*/",
}

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagPassword, validatePassword)
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)
	_ = v.validate.RegisterValidation(TagSafeString, validateSafeString)
}

// validatePassword requires at least 8 characters with at least one letter
// and one number. Empty values are left to the required tag.
func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	if len(value) < 8 {
		return false
	}

	hasLetter := false
	hasNumber := false
	for _, char := range value {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return true
		}
	}
	return false
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return value == strings.TrimSpace(value)
}

func validateSafeString(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	upperValue := strings.ToUpper(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(upperValue, strings.ToUpper(pattern)) {
			return false
		}
	}
	return true
}
