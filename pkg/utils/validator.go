package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the `binding`-independent validation tags on a DTO
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
