package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Messages maps "Field.tag" or "Field" to the text shown when that rule
// fails.
type Messages map[string]string

// Check validates v's struct tags and collects one message per failing
// field. Lookups try "Field.tag" first, then "Field".
func Check(v any, messages Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("validating %T: %w", v, err)
	}

	ve := &ValidationError{}
	for _, fe := range fields {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg, ok = messages[fe.Field()]
		}
		if !ok {
			msg = fmt.Sprintf("El campo %s no es válido.", fe.Field())
		}
		ve.Add(msg)
	}
	return ve
}
