package identifiers

import (
	"reflect"
	"strings"

	"secretariat_import/internal/nationalnumber"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations adds the iban, bce, vat, onss and niss tags.
// Empty strings are left to the required/omitempty tags.
func RegisterValidations(v *validator.Validate) error {
	tags := map[string]func(string) bool{
		"iban": ValidIBAN,
		"bce":  ValidBCE,
		"vat":  ValidVAT,
		"onss": ValidONSS,
		"niss": func(s string) bool {
			_, err := nationalnumber.Parse(s)
			return err == nil
		},
	}
	for tag, fn := range tags {
		check := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || check(s)
		}); err != nil {
			return err
		}
	}
	return nil
}

// NewValidator returns a validator with the identifier tags registered.
// Field errors are reported under the json name when one is set.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
