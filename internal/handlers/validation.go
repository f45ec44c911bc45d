package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		default:
			parts = append(parts, "invalid "+fe.Field())
		}
	}
	return strings.Join(parts, "; ")
}
