package httputils

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"

	"github.com/kart-io/clinsop/pkg/utils/validator"
)

var setupValidatorOnce sync.Once

// SetupValidator installs the shared translating validator as gin's
// binding engine, so binding errors carry per-field messages keyed by
// JSON field names.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v := validator.New()
		// gin declares validation rules under the binding tag.
		v.Engine().SetTagName("binding")
		binding.Validator = &bindingValidator{v: v}
	})
}

type bindingValidator struct {
	v *validator.Validator
}

// ValidateStruct implements binding.StructValidator.
func (b *bindingValidator) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}

	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	if errs := b.v.ValidateWithLang(value.Interface(), validator.LangEN); errs.HasErrors() {
		return errs
	}
	return nil
}

// Engine implements binding.StructValidator.
func (b *bindingValidator) Engine() interface{} {
	return b.v.Engine()
}
